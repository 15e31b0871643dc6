package db

import (
	"fmt"

	"github.com/artel-team/artel/internal/modules/model"
	"gorm.io/gorm"
)

// uniquenessIndexes turn the "at most one pending invite per direction" and
// "at most one chat per pair" rules into storage-level constraints.
var uniquenessIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_invitations_pending_pair ON invitations (from_user, to_user) WHERE status = 'pending'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_chats_pair ON chats (user_low, user_high)`,
}

// Migrate creates or updates all tables and the partial unique indexes.
func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(
		&model.Profile{},
		&model.Skill{},
		&model.UserSkill{},
		&model.Project{},
		&model.ProjectSkill{},
		&model.ProjectResponse{},
		&model.Invitation{},
		&model.Chat{},
		&model.Message{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range uniquenessIndexes {
		if err := d.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}
