package models

import "gorm.io/gorm"

type Release struct {
	gorm.Model

	ProjectID     uint   `gorm:"not null;uniqueIndex:idx_project_env"`
	Client        string `gorm:"not null"`
	Environment   string `gorm:"not null;uniqueIndex:idx_project_env"`
	Branch        string `gorm:"not null"`
	Version       string `gorm:"not null"`
	Build         int    `gorm:"not null"`
	Date          string `gorm:"not null"`
	CommitMessage string

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
