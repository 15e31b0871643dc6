package main

import (
	"fmt"
	"os"

	"github.com/artel-team/artel/internal/telemetry"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "artel",
	Short: "Artel backend - teammates, projects and chats",
	Long: `artel runs the Artel backend.

  artel serve         REST and websocket API
  artel relay         push topic relay
  artel worker        push delivery and stale response cleanup
  artel migrate       create or update the schema
  artel seed-skills   load the skill catalog
`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedSkillsCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("artel version %s\n", telemetry.Version)
	},
}
