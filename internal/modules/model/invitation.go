package model

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRejected InvitationStatus = "rejected"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected:
		return true
	}
	return false
}

// Invitation is a directed edge from_user -> to_user. At most one pending
// invitation per ordered pair is enforced by ux_invitations_pending_pair.
type Invitation struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FromUser     uuid.UUID        `gorm:"type:uuid;not null;index" json:"from_user"`
	ToUser       uuid.UUID        `gorm:"type:uuid;not null;index" json:"to_user"`
	Status       InvitationStatus `gorm:"type:text;not null;default:'pending';check:chk_invitations_status,status IN ('pending','accepted','rejected')" json:"status"`
	ProjectID    *uuid.UUID       `gorm:"type:uuid" json:"project_id,omitempty"`
	ProjectTitle string           `gorm:"type:text;not null;default:''" json:"project_title"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Invitation) TableName() string { return "invitations" }
