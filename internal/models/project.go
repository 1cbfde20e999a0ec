package models

import (
	"time"

	"gorm.io/gorm"
)

type Project struct {
	gorm.Model

	Name    string `gorm:"not null"`
	Slug    string `gorm:"not null;uniqueIndex:idx_owner_slug"`
	OwnerID uint   `gorm:"not null;index;uniqueIndex:idx_owner_slug"`

	LastUpdatedByID *uint
	LastActivityAt  *time.Time

	// Relationships
	Owner              User                `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	LastUpdatedBy      *User               `gorm:"foreignKey:LastUpdatedByID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Invites            []ProjectInvite     `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ActivityLogs       []ActivityLog       `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Releases           []Release           `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	TransactionEvents  []TransactionEvent  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
