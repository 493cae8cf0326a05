package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SettlementRequest struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	IdempotencyKey     string     `gorm:"type:varchar(128);not null;uniqueIndex:idx_settlement_owner_idem"`
	OwnerID            uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_settlement_owner_idem"`
	RuneKey            string     `gorm:"type:varchar(100);not null;index"`
	RuneName           string     `gorm:"type:varchar(255)"`
	Amount             int64      `gorm:"not null"`
	DestinationAddress string     `gorm:"type:varchar(255);not null"`
	Mode               string     `gorm:"type:varchar(20);not null"`
	CustomFeeRate      *float64   `gorm:"type:numeric"`
	FeeRateSatPerVb    float64    `gorm:"type:numeric;not null"`
	FeeTotalSats       int64      `gorm:"not null;default:0"`
	FeeUsd             float64    `gorm:"type:numeric;default:0"`
	Status             string     `gorm:"type:varchar(20);not null;index"`
	BatchID            *uuid.UUID `gorm:"type:uuid;index"`
	Txid               *string    `gorm:"type:varchar(64);index"`
	Confirmations      int32      `gorm:"not null;default:0"`
	FailureReason      *string    `gorm:"type:varchar(100)"`
	Archived           bool       `gorm:"not null;default:false"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

type SettlementEvent struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	SettlementID uuid.UUID `gorm:"type:uuid;not null;index"`
	EventType    string    `gorm:"type:varchar(50);not null"`
	FromStatus   string    `gorm:"type:varchar(20)"`
	ToStatus     string    `gorm:"type:varchar(20);not null"`
	Detail       string    `gorm:"type:text"`
	CreatedAt    time.Time

	Settlement SettlementRequest `gorm:"foreignKey:SettlementID"`
}
