package models

import "gorm.io/gorm"

type ProjectRole string

const (
	RoleOwner  ProjectRole = "owner"
	RoleEditor ProjectRole = "editor"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor:
		return true
	}
	return false
}

type ProjectMembership struct {
	gorm.Model

	UserID    uint        `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID uint        `gorm:"not null;uniqueIndex:idx_user_project"`
	Role      ProjectRole `gorm:"not null"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
