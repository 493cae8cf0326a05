package repositories

import (
	"context"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
)

// RuneBalanceRepository defines virtual ledger operations. Hold, ReleaseHold
// and SettleHold must be called inside a UnitOfWork transaction together with
// the settlement request mutation they belong to.
type RuneBalanceRepository interface {
	Get(ctx context.Context, ownerID uuid.UUID, runeKey string) (*entities.RuneBalance, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RuneBalance, error)
	Upsert(ctx context.Context, balance *entities.RuneBalance) error
	// Hold reserves amount against the available balance; fails with
	// ErrInsufficientBalance when available < amount.
	Hold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error
	// ReleaseHold returns a held amount to the available balance.
	ReleaseHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error
	// SettleHold converts a held amount into settled balance and records the
	// native transaction reference.
	SettleHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64, txid string) error
}
