package usecases_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
)

// In-memory repositories for state-machine flow tests, where mock.Mock
// expectations cannot express evolving row state.

type memUnitOfWork struct{}

func (memUnitOfWork) Do(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type memRequestRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*entities.SettlementRequest
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{rows: make(map[uuid.UUID]*entities.SettlementRequest)}
}

func (r *memRequestRepo) Create(ctx context.Context, req *entities.SettlementRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.OwnerID == req.OwnerID && row.IdempotencyKey == req.IdempotencyKey {
			return domainerrors.ErrAlreadyExists
		}
	}
	stored := *req
	r.rows[req.ID] = &stored
	return nil
}

func (r *memRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memRequestRepo) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*entities.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.OwnerID == ownerID && row.IdempotencyKey == key {
			copied := *row
			return &copied, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (r *memRequestRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.SettlementRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SettlementRequest
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, len(out), nil
}

func (r *memRequestRepo) ListByOwnerAndRune(ctx context.Context, ownerID uuid.UUID, runeKey string) ([]*entities.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SettlementRequest
	for _, row := range r.rows {
		if row.OwnerID == ownerID && row.RuneKey == runeKey {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memRequestRepo) ListByStatus(ctx context.Context, statuses []entities.SettlementStatus, limit int) ([]*entities.SettlementRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SettlementRequest
	for _, row := range r.rows {
		for _, s := range statuses {
			if row.Status == s {
				copied := *row
				out = append(out, &copied)
				break
			}
		}
	}
	return out, nil
}

func (r *memRequestRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if row.Status != from {
		return domainerrors.ErrIllegalTransition
	}
	row.Status = to
	return nil
}

func (r *memRequestRepo) SetTxid(ctx context.Context, id uuid.UUID, txid string) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.Txid = null.StringFrom(txid)
	})
}

func (r *memRequestRepo) SetBatchID(ctx context.Context, id uuid.UUID, batchID uuid.UUID) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.BatchID = &batchID
	})
}

func (r *memRequestRepo) SetConfirmations(ctx context.Context, id uuid.UUID, confirmations int32) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.Confirmations = confirmations
	})
}

func (r *memRequestRepo) SetFailureReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.FailureReason = null.StringFrom(reason)
	})
}

func (r *memRequestRepo) SetFee(ctx context.Context, id uuid.UUID, rateSatPerVb float64, totalSats int64, usd float64) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.FeeRateSatPerVb = rateSatPerVb
		row.FeeTotalSats = totalSats
		row.FeeUsd = usd
	})
}

func (r *memRequestRepo) Archive(ctx context.Context, id uuid.UUID) error {
	return r.mutate(id, func(row *entities.SettlementRequest) {
		row.Archived = true
	})
}

func (r *memRequestRepo) mutate(id uuid.UUID, fn func(*entities.SettlementRequest)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	fn(row)
	return nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events []*entities.SettlementEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{}
}

func (r *memEventRepo) Create(ctx context.Context, event *entities.SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *memEventRepo) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.SettlementEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.SettlementEvent
	for _, e := range r.events {
		if e.SettlementID == settlementID {
			copied := *e
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memBalanceRepo struct {
	mu   sync.Mutex
	rows map[string]*entities.RuneBalance
}

func newMemBalanceRepo() *memBalanceRepo {
	return &memBalanceRepo{rows: make(map[string]*entities.RuneBalance)}
}

func balanceKey(ownerID uuid.UUID, runeKey string) string {
	return ownerID.String() + "/" + runeKey
}

func (r *memBalanceRepo) seed(ownerID uuid.UUID, runeKey, runeName string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[balanceKey(ownerID, runeKey)] = &entities.RuneBalance{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		RuneKey:     runeKey,
		RuneName:    runeName,
		TotalAmount: total,
	}
}

func (r *memBalanceRepo) Get(ctx context.Context, ownerID uuid.UUID, runeKey string) (*entities.RuneBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[balanceKey(ownerID, runeKey)]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	copied := *row
	return &copied, nil
}

func (r *memBalanceRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RuneBalance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.RuneBalance
	for _, row := range r.rows {
		if row.OwnerID == ownerID {
			copied := *row
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *memBalanceRepo) Upsert(ctx context.Context, balance *entities.RuneBalance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *balance
	r.rows[balanceKey(balance.OwnerID, balance.RuneKey)] = &copied
	return nil
}

func (r *memBalanceRepo) Hold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[balanceKey(ownerID, runeKey)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if row.Available() < amount {
		return domainerrors.ErrInsufficientBalance
	}
	row.HeldAmount += amount
	return nil
}

func (r *memBalanceRepo) ReleaseHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[balanceKey(ownerID, runeKey)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	row.HeldAmount -= amount
	return nil
}

func (r *memBalanceRepo) SettleHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64, txid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[balanceKey(ownerID, runeKey)]
	if !ok {
		return domainerrors.ErrNotFound
	}
	row.HeldAmount -= amount
	row.SettledAmount += amount
	row.NativeTxid = null.StringFrom(txid)
	return nil
}
