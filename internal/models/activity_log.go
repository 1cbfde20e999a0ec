package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActivityAction string

const (
	ActionProjectCreated          ActivityAction = "project_created"
	ActionReleaseUpserted         ActivityAction = "release_upserted"
	ActionReleaseDeleted          ActivityAction = "release_deleted"
	ActionTransactionEventCreated ActivityAction = "transaction_event_created"
	ActionTransactionEventUpdated ActivityAction = "transaction_event_updated"
)

// ActivityLog rows are append-only: they are never updated after creation
// and only removed through the project cascade.
type ActivityLog struct {
	gorm.Model

	ProjectID uint           `gorm:"not null;index"`
	UserID    *uint          `gorm:"index"`
	Action    ActivityAction `gorm:"not null"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User    *User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
