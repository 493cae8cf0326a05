package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/infrastructure/models"
)

// BatchWindowRepository implements batch window data operations
type BatchWindowRepository struct {
	db *gorm.DB
}

// NewBatchWindowRepository creates a new batch window repository
func NewBatchWindowRepository(db *gorm.DB) *BatchWindowRepository {
	return &BatchWindowRepository{db: db}
}

// Create creates a new batch window
func (r *BatchWindowRepository) Create(ctx context.Context, window *entities.BatchWindow) error {
	m := &models.BatchWindow{
		ID:         window.ID,
		FeeCohort:  window.FeeCohort,
		TargetSize: window.TargetSize,
		MaxWaitMs:  window.MaxWaitMs,
		OpenedAt:   window.OpenedAt,
		ClosedAt:   window.ClosedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	window.ID = m.ID
	return nil
}

// GetByID gets a batch window by ID
func (r *BatchWindowRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BatchWindow, error) {
	var m models.BatchWindow
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetOpenByCohort gets the open window of a fee cohort, if any
func (r *BatchWindowRepository) GetOpenByCohort(ctx context.Context, cohort string) (*entities.BatchWindow, error) {
	var m models.BatchWindow
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("fee_cohort = ? AND closed_at IS NULL", cohort).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListOpen lists all open windows
func (r *BatchWindowRepository) ListOpen(ctx context.Context) ([]*entities.BatchWindow, error) {
	var ms []models.BatchWindow
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("closed_at IS NULL").
		Order("opened_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	windows := make([]*entities.BatchWindow, 0, len(ms))
	for i := range ms {
		windows = append(windows, r.toEntity(&ms[i]))
	}
	return windows, nil
}

// AddMember joins a settlement to a window
func (r *BatchWindowRepository) AddMember(ctx context.Context, member *entities.BatchMember) error {
	m := &models.BatchMember{
		ID:           member.ID,
		BatchID:      member.BatchID,
		SettlementID: member.SettlementID,
		JoinIndex:    member.JoinIndex,
		FeeShareSats: member.FeeShareSats,
		CreatedAt:    member.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	member.ID = m.ID
	return nil
}

// Members returns a window's members in join order
func (r *BatchWindowRepository) Members(ctx context.Context, batchID uuid.UUID) ([]*entities.BatchMember, error) {
	var ms []models.BatchMember
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("join_index ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	members := make([]*entities.BatchMember, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		members = append(members, &entities.BatchMember{
			ID:           m.ID,
			BatchID:      m.BatchID,
			SettlementID: m.SettlementID,
			JoinIndex:    m.JoinIndex,
			FeeShareSats: m.FeeShareSats,
			CreatedAt:    m.CreatedAt,
		})
	}
	return members, nil
}

// SetMemberFeeShare records a member's amortized fee share
func (r *BatchWindowRepository) SetMemberFeeShare(ctx context.Context, memberID uuid.UUID, feeShareSats int64) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.BatchMember{}).
		Where("id = ?", memberID).
		Update("fee_share_sats", feeShareSats)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Close marks an open window closed. The closed_at guard makes concurrent
// close attempts race safely: exactly one caller wins.
func (r *BatchWindowRepository) Close(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.BatchWindow{}).
		Where("id = ? AND closed_at IS NULL", id).
		Update("closed_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var m models.BatchWindow
		if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}
		return domainerrors.ErrBatchClosed
	}
	return nil
}

func (r *BatchWindowRepository) toEntity(m *models.BatchWindow) *entities.BatchWindow {
	return &entities.BatchWindow{
		ID:         m.ID,
		FeeCohort:  m.FeeCohort,
		TargetSize: m.TargetSize,
		MaxWaitMs:  m.MaxWaitMs,
		OpenedAt:   m.OpenedAt,
		ClosedAt:   m.ClosedAt,
	}
}
