package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SettlementStatus represents the state of a settlement request
type SettlementStatus string

const (
	SettlementStatusQueued       SettlementStatus = "QUEUED"
	SettlementStatusBatching     SettlementStatus = "BATCHING"
	SettlementStatusSigning      SettlementStatus = "SIGNING"
	SettlementStatusBroadcasting SettlementStatus = "BROADCASTING"
	SettlementStatusConfirming   SettlementStatus = "CONFIRMING"
	SettlementStatusConfirmed    SettlementStatus = "CONFIRMED"
	SettlementStatusFailed       SettlementStatus = "FAILED"
)

// IsTerminal reports whether the status is final and immutable.
func (s SettlementStatus) IsTerminal() bool {
	return s == SettlementStatusConfirmed || s == SettlementStatusFailed
}

// settlementTransitions is the set of legal forward transitions.
// Failed is additionally reachable from every non-terminal state.
var settlementTransitions = map[SettlementStatus][]SettlementStatus{
	SettlementStatusQueued:       {SettlementStatusBatching, SettlementStatusSigning},
	SettlementStatusBatching:     {SettlementStatusSigning},
	SettlementStatusSigning:      {SettlementStatusBroadcasting},
	SettlementStatusBroadcasting: {SettlementStatusConfirming},
	SettlementStatusConfirming:   {SettlementStatusConfirmed},
}

// CanTransition reports whether from -> to is a legal state machine step.
func CanTransition(from, to SettlementStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == SettlementStatusFailed {
		return true
	}
	for _, next := range settlementTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SettlementMode represents how a settlement should be executed and priced
type SettlementMode string

const (
	SettlementModeInstant   SettlementMode = "instant"
	SettlementModeBatched   SettlementMode = "batched"
	SettlementModeScheduled SettlementMode = "scheduled"
	SettlementModeManual    SettlementMode = "manual"
)

// Valid reports whether the mode is one of the supported settlement modes.
func (m SettlementMode) Valid() bool {
	switch m {
	case SettlementModeInstant, SettlementModeBatched, SettlementModeScheduled, SettlementModeManual:
		return true
	}
	return false
}

// Failure reasons recorded on terminal Failed settlements.
const (
	FailureReasonSigning          = "signing_failed"
	FailureReasonFeeTooLow        = "fee_too_low"
	FailureReasonDoubleSpend      = "double_spend"
	FailureReasonNodeUnreachable  = "node_unreachable"
	FailureReasonBroadcastTimeout = "broadcast_timeout"
	FailureReasonStale            = "stale"
	FailureReasonReorged          = "reorged"
)

// SettlementRequest represents a request to convert a virtual rune balance
// into a native on-chain asset. Amount is held against the owner's virtual
// balance while the request is non-terminal.
type SettlementRequest struct {
	ID                 uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	IdempotencyKey     string           `json:"idempotencyKey"`
	OwnerID            uuid.UUID        `json:"ownerId"`
	RuneKey            string           `json:"runeKey"`
	RuneName           string           `json:"runeName"`
	Amount             int64            `json:"amount"`
	DestinationAddress string           `json:"destinationAddress"`
	Mode               SettlementMode   `json:"mode"`
	CustomFeeRate      *float64         `json:"customFeeRate,omitempty"`
	FeeRateSatPerVb    float64          `json:"feeRateSatPerVb"`
	FeeTotalSats       int64            `json:"feeTotalSats"`
	FeeUsd             float64          `json:"feeUsd"`
	Status             SettlementStatus `json:"status"`
	BatchID            *uuid.UUID       `json:"batchId,omitempty"`
	Txid               null.String      `json:"txid,omitempty"`
	Confirmations      int32            `json:"confirmations"`
	FailureReason      null.String      `json:"failureReason,omitempty"`
	Archived           bool             `json:"archived" gorm:"default:false"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

// SettlementEventType represents a settlement audit event type
type SettlementEventType string

const (
	SettlementEventTypeSubmitted    SettlementEventType = "SUBMITTED"
	SettlementEventTypeTransitioned SettlementEventType = "TRANSITIONED"
	SettlementEventTypeTxid         SettlementEventType = "TXID_ASSIGNED"
)

// SettlementEvent is an append-only record of a status transition.
type SettlementEvent struct {
	ID           uuid.UUID           `json:"id" gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	SettlementID uuid.UUID           `json:"settlementId"`
	EventType    SettlementEventType `json:"eventType"`
	FromStatus   SettlementStatus    `json:"fromStatus,omitempty"`
	ToStatus     SettlementStatus    `json:"toStatus"`
	Detail       string              `json:"detail,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// StatusChange is the notification payload delivered to subscribers.
type StatusChange struct {
	RequestID     uuid.UUID        `json:"requestId"`
	Status        SettlementStatus `json:"status"`
	Txid          string           `json:"txid,omitempty"`
	Confirmations int32            `json:"confirmations,omitempty"`
	FailureReason string           `json:"failureReason,omitempty"`
	At            time.Time        `json:"at"`
}

// SubmitSettlementInput represents input for submitting a settlement
type SubmitSettlementInput struct {
	IdempotencyKey     string   `json:"idempotencyKey" binding:"required,min=1,max=128"`
	RuneKey            string   `json:"runeKey" binding:"required"`
	Amount             int64    `json:"amount" binding:"required"`
	DestinationAddress string   `json:"destinationAddress" binding:"required"`
	Mode               string   `json:"mode" binding:"required"`
	CustomFeeRate      *float64 `json:"customFeeRate,omitempty"`
}

// SubmitSettlementResponse represents the response for a settlement submission
type SubmitSettlementResponse struct {
	RequestID uuid.UUID        `json:"requestId"`
	Status    SettlementStatus `json:"status"`
	Duplicate bool             `json:"duplicate,omitempty"`
	Fee       *FeeEstimate     `json:"fee,omitempty"`
}
