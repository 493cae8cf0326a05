package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"rune-settle.backend/internal/domain/entities"
	"rune-settle.backend/internal/infrastructure/models"
)

// SettlementEventRepository implements settlement audit event operations
type SettlementEventRepository struct {
	db *gorm.DB
}

// NewSettlementEventRepository creates a new settlement event repository
func NewSettlementEventRepository(db *gorm.DB) *SettlementEventRepository {
	return &SettlementEventRepository{db: db}
}

// Create appends an audit event
func (r *SettlementEventRepository) Create(ctx context.Context, event *entities.SettlementEvent) error {
	m := &models.SettlementEvent{
		ID:           event.ID,
		SettlementID: event.SettlementID,
		EventType:    string(event.EventType),
		FromStatus:   string(event.FromStatus),
		ToStatus:     string(event.ToStatus),
		Detail:       event.Detail,
		CreatedAt:    event.CreatedAt,
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	event.ID = m.ID
	return nil
}

// GetBySettlementID returns a settlement's audit events in insertion order
func (r *SettlementEventRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.SettlementEvent, error) {
	var ms []models.SettlementEvent
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("settlement_id = ?", settlementID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]*entities.SettlementEvent, 0, len(ms))
	for i := range ms {
		m := &ms[i]
		events = append(events, &entities.SettlementEvent{
			ID:           m.ID,
			SettlementID: m.SettlementID,
			EventType:    entities.SettlementEventType(m.EventType),
			FromStatus:   entities.SettlementStatus(m.FromStatus),
			ToStatus:     entities.SettlementStatus(m.ToStatus),
			Detail:       m.Detail,
			CreatedAt:    m.CreatedAt,
		})
	}
	return events, nil
}
