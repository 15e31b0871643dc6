package main

import (
	"fmt"
	"os"

	"github.com/artel-team/artel/internal/bootstrap"
	"github.com/artel-team/artel/internal/config"
	"github.com/artel-team/artel/internal/infra/db"
	"github.com/artel-team/artel/internal/modules/service"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and uniqueness indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		inj := bootstrap.BuildContainer()
		defer func() { _ = inj.Shutdown() }()

		cfg := do.MustInvoke[*config.Config](inj)
		// the provider migrates on open when automigrate is on
		d, err := do.Invoke[*gorm.DB](inj)
		if err != nil {
			return err
		}
		if !cfg.Database.AutoMigrate {
			if err := db.Migrate(d); err != nil {
				return err
			}
		}
		fmt.Println("schema up to date")
		return nil
	},
}

var seedFile string

var seedSkillsCmd = &cobra.Command{
	Use:   "seed-skills",
	Short: "Load the skill catalog from a YAML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		inj := bootstrap.BuildContainer()
		defer func() { _ = inj.Shutdown() }()

		f, err := os.Open(seedFile)
		if err != nil {
			return err
		}
		defer f.Close()

		n, err := do.MustInvoke[service.SkillService](inj).Seed(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d skills from %s\n", n, seedFile)
		return nil
	},
}

func init() {
	seedSkillsCmd.Flags().StringVarP(&seedFile, "file", "f", "config/skills.yaml", "skill catalog YAML")
}
