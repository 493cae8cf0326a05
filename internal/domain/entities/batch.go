package entities

import (
	"time"

	"github.com/google/uuid"
)

// BatchWindow groups concurrent batched-mode settlements so the transaction
// fee can be amortized across members. At most one window is open per fee
// cohort at a time.
type BatchWindow struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	FeeCohort  string     `json:"feeCohort"`
	TargetSize int        `json:"targetSize"`
	MaxWaitMs  int64      `json:"maxWaitMs"`
	OpenedAt   time.Time  `json:"openedAt"`
	ClosedAt   *time.Time `json:"closedAt,omitempty"`
}

// Closed reports whether the window has been closed and dispatched.
func (w *BatchWindow) Closed() bool {
	return w.ClosedAt != nil
}

// BatchMember joins a settlement request to its batch window, preserving
// join order for deterministic fee-share remainder assignment.
type BatchMember struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	BatchID      uuid.UUID `json:"batchId"`
	SettlementID uuid.UUID `json:"settlementId"`
	JoinIndex    int       `json:"joinIndex"`
	FeeShareSats int64     `json:"feeShareSats"`
	CreatedAt    time.Time `json:"createdAt"`
}
