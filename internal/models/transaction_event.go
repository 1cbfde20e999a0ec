package models

import "gorm.io/gorm"

type TransactionEvent struct {
	gorm.Model

	ProjectID   uint   `gorm:"not null;index"`
	Code        string `gorm:"not null"`
	CodeKey     string `gorm:"not null;uniqueIndex"`
	Description string `gorm:"not null"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
