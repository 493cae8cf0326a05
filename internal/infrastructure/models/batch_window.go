package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchWindow struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	FeeCohort  string    `gorm:"type:varchar(50);not null;index"`
	TargetSize int       `gorm:"not null"`
	MaxWaitMs  int64     `gorm:"not null"`
	OpenedAt   time.Time `gorm:"not null"`
	ClosedAt   *time.Time
}

type BatchMember struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	BatchID      uuid.UUID `gorm:"type:uuid;not null;index"`
	SettlementID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	JoinIndex    int       `gorm:"not null"`
	FeeShareSats int64     `gorm:"not null;default:0"`
	CreatedAt    time.Time

	Batch BatchWindow `gorm:"foreignKey:BatchID"`
}
