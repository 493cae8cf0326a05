package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/infrastructure/models"
	"rune-settle.backend/pkg/utils"
)

// RuneBalanceRepository implements the virtual rune ledger
type RuneBalanceRepository struct {
	db *gorm.DB
}

// NewRuneBalanceRepository creates a new rune balance repository
func NewRuneBalanceRepository(db *gorm.DB) *RuneBalanceRepository {
	return &RuneBalanceRepository{db: db}
}

// Get returns the balance row for an (owner, rune) pair
func (r *RuneBalanceRepository) Get(ctx context.Context, ownerID uuid.UUID, runeKey string) (*entities.RuneBalance, error) {
	var m models.RuneBalance
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND rune_key = ?", ownerID, runeKey).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByOwner returns every balance row the owner holds
func (r *RuneBalanceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RuneBalance, error) {
	var ms []models.RuneBalance
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("rune_key ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	balances := make([]*entities.RuneBalance, 0, len(ms))
	for i := range ms {
		balances = append(balances, r.toEntity(&ms[i]))
	}
	return balances, nil
}

// Upsert creates or replaces the balance row for an (owner, rune) pair
func (r *RuneBalanceRepository) Upsert(ctx context.Context, balance *entities.RuneBalance) error {
	db := GetDB(ctx, r.db)

	var existing models.RuneBalance
	err := db.WithContext(ctx).
		Where("owner_id = ? AND rune_key = ?", balance.OwnerID, balance.RuneKey).
		First(&existing).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	m := r.toModel(balance)
	if err == nil {
		m.ID = existing.ID
		return db.WithContext(ctx).Save(m).Error
	}
	if m.ID == uuid.Nil {
		m.ID = utils.GenerateUUIDv7()
	}
	if createErr := db.WithContext(ctx).Create(m).Error; createErr != nil {
		return createErr
	}
	balance.ID = m.ID
	return nil
}

// Hold reserves amount against the available balance. The guard on the
// available columns makes the check-and-reserve a single atomic statement, so
// concurrent holds cannot overdraw the ledger.
func (r *RuneBalanceRepository) Hold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.RuneBalance{}).
		Where("owner_id = ? AND rune_key = ? AND total_amount - held_amount - settled_amount >= ?",
			ownerID, runeKey, amount).
		Update("held_amount", gorm.Expr("held_amount + ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the row is missing or the available balance is short.
		if _, err := r.Get(ctx, ownerID, runeKey); err != nil {
			return err
		}
		return domainerrors.ErrInsufficientBalance
	}
	return nil
}

// ReleaseHold returns a held amount to the available balance
func (r *RuneBalanceRepository) ReleaseHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.RuneBalance{}).
		Where("owner_id = ? AND rune_key = ? AND held_amount >= ?", ownerID, runeKey, amount).
		Update("held_amount", gorm.Expr("held_amount - ?", amount))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// SettleHold converts a held amount into settled balance and records the
// native transaction reference
func (r *RuneBalanceRepository) SettleHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64, txid string) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.RuneBalance{}).
		Where("owner_id = ? AND rune_key = ? AND held_amount >= ?", ownerID, runeKey, amount).
		Updates(map[string]interface{}{
			"held_amount":    gorm.Expr("held_amount - ?", amount),
			"settled_amount": gorm.Expr("settled_amount + ?", amount),
			"native_txid":    txid,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *RuneBalanceRepository) toModel(b *entities.RuneBalance) *models.RuneBalance {
	m := &models.RuneBalance{
		ID:            b.ID,
		OwnerID:       b.OwnerID,
		RuneKey:       b.RuneKey,
		RuneName:      b.RuneName,
		TotalAmount:   b.TotalAmount,
		HeldAmount:    b.HeldAmount,
		SettledAmount: b.SettledAmount,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.NativeTxid.Valid {
		txid := b.NativeTxid.String
		m.NativeTxid = &txid
	}
	return m
}

func (r *RuneBalanceRepository) toEntity(m *models.RuneBalance) *entities.RuneBalance {
	b := &entities.RuneBalance{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		RuneKey:       m.RuneKey,
		RuneName:      m.RuneName,
		TotalAmount:   m.TotalAmount,
		HeldAmount:    m.HeldAmount,
		SettledAmount: m.SettledAmount,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.NativeTxid != nil {
		b.NativeTxid = null.StringFrom(*m.NativeTxid)
	}
	return b
}
