package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SavedAddress struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_saved_owner_address"`
	Address    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_saved_owner_address"`
	Label      string    `gorm:"type:varchar(100);not null"`
	Type       string    `gorm:"type:varchar(20)"`
	Network    string    `gorm:"type:varchar(20)"`
	IsPrimary  bool      `gorm:"not null;default:false"`
	UseCount   int       `gorm:"not null;default:0"`
	LastUsedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}
