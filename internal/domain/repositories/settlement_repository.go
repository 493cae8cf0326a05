package repositories

import (
	"context"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
)

// SettlementRequestRepository defines settlement request data operations
type SettlementRequestRepository interface {
	Create(ctx context.Context, req *entities.SettlementRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementRequest, error)
	GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*entities.SettlementRequest, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.SettlementRequest, int, error)
	ListByOwnerAndRune(ctx context.Context, ownerID uuid.UUID, runeKey string) ([]*entities.SettlementRequest, error)
	ListByStatus(ctx context.Context, statuses []entities.SettlementStatus, limit int) ([]*entities.SettlementRequest, error)
	// UpdateStatus transitions a request, guarded by the expected current
	// status so concurrent writers cannot double-apply a transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus) error
	SetTxid(ctx context.Context, id uuid.UUID, txid string) error
	SetBatchID(ctx context.Context, id uuid.UUID, batchID uuid.UUID) error
	SetConfirmations(ctx context.Context, id uuid.UUID, confirmations int32) error
	SetFailureReason(ctx context.Context, id uuid.UUID, reason string) error
	SetFee(ctx context.Context, id uuid.UUID, rateSatPerVb float64, totalSats int64, usd float64) error
	Archive(ctx context.Context, id uuid.UUID) error
}

// SettlementEventRepository defines settlement audit event operations
type SettlementEventRepository interface {
	Create(ctx context.Context, event *entities.SettlementEvent) error
	GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.SettlementEvent, error)
}
