package repositories

import (
	"context"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
)

// SavedAddressRepository defines saved destination address operations
type SavedAddressRepository interface {
	Create(ctx context.Context, addr *entities.SavedAddress) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SavedAddress, error)
	GetByAddress(ctx context.Context, ownerID uuid.UUID, address string) (*entities.SavedAddress, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.SavedAddress, error)
	SetPrimary(ctx context.Context, ownerID, id uuid.UUID) error
	TouchUsage(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
