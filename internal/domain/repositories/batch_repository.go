package repositories

import (
	"context"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
)

// BatchWindowRepository defines batch window data operations
type BatchWindowRepository interface {
	Create(ctx context.Context, window *entities.BatchWindow) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.BatchWindow, error)
	GetOpenByCohort(ctx context.Context, cohort string) (*entities.BatchWindow, error)
	ListOpen(ctx context.Context) ([]*entities.BatchWindow, error)
	AddMember(ctx context.Context, member *entities.BatchMember) error
	Members(ctx context.Context, batchID uuid.UUID) ([]*entities.BatchMember, error)
	SetMemberFeeShare(ctx context.Context, memberID uuid.UUID, feeShareSats int64) error
	// Close marks an open window closed; fails with ErrBatchClosed when the
	// window was already closed by a concurrent caller.
	Close(ctx context.Context, id uuid.UUID) error
}
