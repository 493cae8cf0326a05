package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/infrastructure/models"
)

// SettlementRequestRepository implements settlement request data operations
type SettlementRequestRepository struct {
	db *gorm.DB
}

// NewSettlementRequestRepository creates a new settlement request repository
func NewSettlementRequestRepository(db *gorm.DB) *SettlementRequestRepository {
	return &SettlementRequestRepository{db: db}
}

// Create creates a new settlement request. The (owner, idempotency key)
// unique index turns a concurrent duplicate submission into ErrAlreadyExists.
func (r *SettlementRequestRepository) Create(ctx context.Context, req *entities.SettlementRequest) error {
	m := r.toModel(req)
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	req.ID = m.ID
	return nil
}

// GetByID gets a settlement request by ID
func (r *SettlementRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementRequest, error) {
	var m models.SettlementRequest
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByIdempotencyKey gets an owner's settlement request by idempotency key
func (r *SettlementRequestRepository) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*entities.SettlementRequest, error) {
	var m models.SettlementRequest
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND idempotency_key = ?", ownerID, key).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByOwner lists an owner's settlement requests with pagination, newest first
func (r *SettlementRequestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.SettlementRequest, int, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.WithContext(ctx).Model(&models.SettlementRequest{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.SettlementRequest
	if err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	requests := make([]*entities.SettlementRequest, 0, len(ms))
	for i := range ms {
		requests = append(requests, r.toEntity(&ms[i]))
	}
	return requests, int(total), nil
}

// ListByOwnerAndRune lists an owner's settlement requests for one rune
func (r *SettlementRequestRepository) ListByOwnerAndRune(ctx context.Context, ownerID uuid.UUID, runeKey string) ([]*entities.SettlementRequest, error) {
	var ms []models.SettlementRequest
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND rune_key = ?", ownerID, runeKey).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	requests := make([]*entities.SettlementRequest, 0, len(ms))
	for i := range ms {
		requests = append(requests, r.toEntity(&ms[i]))
	}
	return requests, nil
}

// ListByStatus lists settlement requests in any of the given statuses
func (r *SettlementRequestRepository) ListByStatus(ctx context.Context, statuses []entities.SettlementStatus, limit int) ([]*entities.SettlementRequest, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	var ms []models.SettlementRequest
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("status IN ?", values).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	requests := make([]*entities.SettlementRequest, 0, len(ms))
	for i := range ms {
		requests = append(requests, r.toEntity(&ms[i]))
	}
	return requests, nil
}

// UpdateStatus transitions a request guarded by the expected current status.
// A zero-row update means the row moved on concurrently.
func (r *SettlementRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.SettlementRequest{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrIllegalTransition
	}
	return nil
}

// SetTxid records the broadcast transaction ID
func (r *SettlementRequestRepository) SetTxid(ctx context.Context, id uuid.UUID, txid string) error {
	return r.update(ctx, id, map[string]interface{}{"txid": txid})
}

// SetBatchID links a request to its batch window
func (r *SettlementRequestRepository) SetBatchID(ctx context.Context, id uuid.UUID, batchID uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"batch_id": batchID})
}

// SetConfirmations records the current confirmation count
func (r *SettlementRequestRepository) SetConfirmations(ctx context.Context, id uuid.UUID, confirmations int32) error {
	return r.update(ctx, id, map[string]interface{}{"confirmations": confirmations})
}

// SetFailureReason records why a request failed
func (r *SettlementRequestRepository) SetFailureReason(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, id, map[string]interface{}{"failure_reason": reason})
}

// SetFee records the quoted or amortized fee
func (r *SettlementRequestRepository) SetFee(ctx context.Context, id uuid.UUID, rateSatPerVb float64, totalSats int64, usd float64) error {
	return r.update(ctx, id, map[string]interface{}{
		"fee_rate_sat_per_vb": rateSatPerVb,
		"fee_total_sats":      totalSats,
		"fee_usd":             usd,
	})
}

// Archive hides a terminal request from default listings. Requests are never
// deleted.
func (r *SettlementRequestRepository) Archive(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{"archived": true})
}

func (r *SettlementRequestRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.SettlementRequest{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SettlementRequestRepository) toModel(req *entities.SettlementRequest) *models.SettlementRequest {
	m := &models.SettlementRequest{
		ID:                 req.ID,
		IdempotencyKey:     req.IdempotencyKey,
		OwnerID:            req.OwnerID,
		RuneKey:            req.RuneKey,
		RuneName:           req.RuneName,
		Amount:             req.Amount,
		DestinationAddress: req.DestinationAddress,
		Mode:               string(req.Mode),
		CustomFeeRate:      req.CustomFeeRate,
		FeeRateSatPerVb:    req.FeeRateSatPerVb,
		FeeTotalSats:       req.FeeTotalSats,
		FeeUsd:             req.FeeUsd,
		Status:             string(req.Status),
		BatchID:            req.BatchID,
		Confirmations:      req.Confirmations,
		Archived:           req.Archived,
		CreatedAt:          req.CreatedAt,
		UpdatedAt:          req.UpdatedAt,
	}
	if req.Txid.Valid {
		txid := req.Txid.String
		m.Txid = &txid
	}
	if req.FailureReason.Valid {
		reason := req.FailureReason.String
		m.FailureReason = &reason
	}
	return m
}

func (r *SettlementRequestRepository) toEntity(m *models.SettlementRequest) *entities.SettlementRequest {
	req := &entities.SettlementRequest{
		ID:                 m.ID,
		IdempotencyKey:     m.IdempotencyKey,
		OwnerID:            m.OwnerID,
		RuneKey:            m.RuneKey,
		RuneName:           m.RuneName,
		Amount:             m.Amount,
		DestinationAddress: m.DestinationAddress,
		Mode:               entities.SettlementMode(m.Mode),
		CustomFeeRate:      m.CustomFeeRate,
		FeeRateSatPerVb:    m.FeeRateSatPerVb,
		FeeTotalSats:       m.FeeTotalSats,
		FeeUsd:             m.FeeUsd,
		Status:             entities.SettlementStatus(m.Status),
		BatchID:            m.BatchID,
		Confirmations:      m.Confirmations,
		Archived:           m.Archived,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
	if m.Txid != nil {
		req.Txid = null.StringFrom(*m.Txid)
	}
	if m.FailureReason != nil {
		req.FailureReason = null.StringFrom(*m.FailureReason)
	}
	return req
}

// isUniqueViolation matches both the postgres and sqlite phrasing of a
// unique constraint failure.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
