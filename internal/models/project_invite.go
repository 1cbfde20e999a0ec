package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectInvite struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;uniqueIndex:idx_project_email"`
	Email       string `gorm:"not null;uniqueIndex:idx_project_email"`
	InvitedByID uint   `gorm:"not null;index"`
	Token       string `gorm:"not null;uniqueIndex"`
	ExpiresAt   time.Time
	AcceptedAt  *time.Time

	// Relationships
	Project   Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	InvitedBy User    `gorm:"foreignKey:InvitedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
