package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// RuneState represents the lifecycle state of a rune for an owner
type RuneState string

const (
	RuneStateDraft   RuneState = "draft"
	RuneStateVirtual RuneState = "virtual"
	RuneStatePending RuneState = "pending"
	RuneStateNative  RuneState = "native"
)

// RuneBalance is the off-chain virtual ledger row for an (owner, rune) pair.
// Available balance is TotalAmount - HeldAmount - SettledAmount; settlement
// holds are applied against it atomically.
type RuneBalance struct {
	ID            uuid.UUID   `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	OwnerID       uuid.UUID   `json:"ownerId"`
	RuneKey       string      `json:"runeKey"`
	RuneName      string      `json:"runeName"`
	TotalAmount   int64       `json:"totalAmount"`
	HeldAmount    int64       `json:"heldAmount"`
	SettledAmount int64       `json:"settledAmount"`
	NativeTxid    null.String `json:"nativeTxid,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Available returns the balance not held by in-flight settlements and not
// already settled on-chain.
func (b *RuneBalance) Available() int64 {
	return b.TotalAmount - b.HeldAmount - b.SettledAmount
}

// RuneLifecycleRecord is the aggregated per-rune view recomputed from the
// settlement request set; it is never independently mutated.
type RuneLifecycleRecord struct {
	RuneKey       string    `json:"runeKey"`
	RuneName      string    `json:"runeName"`
	State         RuneState `json:"state"`
	SettledAmount int64     `json:"settledAmount"`
	TotalAmount   int64     `json:"totalAmount"`
	PendingAmount int64     `json:"pendingAmount"`
	NativeTxid    string    `json:"nativeTxid,omitempty"`
}
