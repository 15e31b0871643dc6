package model

import "github.com/google/uuid"

type SkillCategory string

const (
	SkillProgramming SkillCategory = "programming"
	SkillDesign      SkillCategory = "design"
	SkillManagement  SkillCategory = "management"
)

func (c SkillCategory) Valid() bool {
	switch c {
	case SkillProgramming, SkillDesign, SkillManagement:
		return true
	}
	return false
}

type Skill struct {
	ID       int           `gorm:"primaryKey;autoIncrement" json:"id" yaml:"-"`
	Name     string        `gorm:"type:text;not null;uniqueIndex" json:"name" yaml:"name"`
	Category SkillCategory `gorm:"type:text;not null;check:chk_skills_category,category IN ('programming','design','management')" json:"category" yaml:"category"`
}

func (Skill) TableName() string { return "skills" }

type UserSkill struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	SkillID int       `gorm:"primaryKey" json:"skill_id"`
}

func (UserSkill) TableName() string { return "user_skills" }

type ProjectSkill struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primaryKey" json:"project_id"`
	SkillID   int       `gorm:"primaryKey" json:"skill_id"`

	Project *Project `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (ProjectSkill) TableName() string { return "project_skills" }
