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
	"rune-settle.backend/pkg/utils"
)

// SavedAddressRepository implements saved destination address operations
type SavedAddressRepository struct {
	db *gorm.DB
}

// NewSavedAddressRepository creates a new saved address repository
func NewSavedAddressRepository(db *gorm.DB) *SavedAddressRepository {
	return &SavedAddressRepository{db: db}
}

// Create bookmarks an address for an owner
func (r *SavedAddressRepository) Create(ctx context.Context, addr *entities.SavedAddress) error {
	m := r.toModel(addr)
	if m.ID == uuid.Nil {
		m.ID = utils.GenerateUUIDv7()
	}
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	addr.ID = m.ID
	return nil
}

// GetByID gets a saved address by ID
func (r *SavedAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SavedAddress, error) {
	var m models.SavedAddress
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByAddress gets an owner's bookmark for a raw address
func (r *SavedAddressRepository) GetByAddress(ctx context.Context, ownerID uuid.UUID, address string) (*entities.SavedAddress, error) {
	var m models.SavedAddress
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ? AND address = ?", ownerID, address).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByOwner lists an owner's bookmarks, primary first then most recently used
func (r *SavedAddressRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.SavedAddress, error) {
	var ms []models.SavedAddress
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("is_primary DESC, last_used_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	addrs := make([]*entities.SavedAddress, 0, len(ms))
	for i := range ms {
		addrs = append(addrs, r.toEntity(&ms[i]))
	}
	return addrs, nil
}

// SetPrimary makes one bookmark primary and demotes the owner's others
func (r *SavedAddressRepository) SetPrimary(ctx context.Context, ownerID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.WithContext(ctx).Model(&models.SavedAddress{}).
		Where("owner_id = ?", ownerID).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	result := db.WithContext(ctx).Model(&models.SavedAddress{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("is_primary", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// TouchUsage bumps the bookmark's usage counter
func (r *SavedAddressRepository) TouchUsage(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).Model(&models.SavedAddress{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"use_count":    gorm.Expr("use_count + 1"),
			"last_used_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// Delete removes an owner's bookmark
func (r *SavedAddressRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	result := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.SavedAddress{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *SavedAddressRepository) toModel(a *entities.SavedAddress) *models.SavedAddress {
	return &models.SavedAddress{
		ID:         a.ID,
		OwnerID:    a.OwnerID,
		Address:    a.Address,
		Label:      a.Label,
		Type:       string(a.Type),
		Network:    string(a.Network),
		IsPrimary:  a.IsPrimary,
		UseCount:   a.UseCount,
		LastUsedAt: a.LastUsedAt,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (r *SavedAddressRepository) toEntity(m *models.SavedAddress) *entities.SavedAddress {
	return &entities.SavedAddress{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Address:    m.Address,
		Label:      m.Label,
		Type:       entities.ScriptType(m.Type),
		Network:    entities.Network(m.Network),
		IsPrimary:  m.IsPrimary,
		UseCount:   m.UseCount,
		LastUsedAt: m.LastUsedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
