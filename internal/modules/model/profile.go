package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Role tags a profile can carry and a project can require.
const (
	RoleFrontend      = "frontend"
	RoleBackend       = "backend"
	RoleDevops        = "devops"
	RoleML            = "ml"
	RoleDesign        = "design"
	RoleManager       = "manager"
	RoleAndroid       = "android"
	RoleIOS           = "ios"
	RoleCrossplatform = "crossplatform"
)

var Roles = []string{
	RoleFrontend, RoleBackend, RoleDevops, RoleML, RoleDesign,
	RoleManager, RoleAndroid, RoleIOS, RoleCrossplatform,
}

func IsRole(s string) bool {
	for _, r := range Roles {
		if r == s {
			return true
		}
	}
	return false
}

// Profile is one-to-one with an auth user and shares its id.
type Profile struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	FullName      string         `gorm:"type:text;not null;default:''" json:"full_name"`
	Bio           string         `gorm:"type:text;not null;default:''" json:"bio"`
	AvatarPath    string         `gorm:"type:text;not null;default:''" json:"avatar_path"`
	Roles         pq.StringArray `gorm:"type:text[];not null;default:'{}'" swaggertype:"array,string" json:"roles"`
	WantInProject bool           `gorm:"not null;default:false;index" json:"want_in_project"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP;index" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }
