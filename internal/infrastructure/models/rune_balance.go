package models

import (
	"time"

	"github.com/google/uuid"
)

type RuneBalance struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	OwnerID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balance_owner_rune"`
	RuneKey       string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_balance_owner_rune"`
	RuneName      string    `gorm:"type:varchar(255)"`
	TotalAmount   int64     `gorm:"not null;default:0"`
	HeldAmount    int64     `gorm:"not null;default:0"`
	SettledAmount int64     `gorm:"not null;default:0"`
	NativeTxid    *string   `gorm:"type:varchar(64)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
