// Package models contains the storage rows of the companies API,
// mapped with GORM.
package models

import (
	"time"
)

// Company is a company row. ID is a UUID string assigned by the service;
// Document is unique across the table.
type Company struct {
	ID        string `gorm:"type:varchar(36);primaryKey"`
	Name      string `gorm:"size:255;not null"`
	Document  string `gorm:"size:64;not null;uniqueIndex"`
	Address   string `gorm:"size:500"`
	IsActive  bool   `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
