package usecases

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/domain/repositories"
	"rune-settle.backend/pkg/logger"
	"rune-settle.backend/pkg/utils"
)

// BatchJob is the close output of a window: one signing job covering every
// member, in join order.
type BatchJob struct {
	WindowID  uuid.UUID
	MemberIDs []uuid.UUID
}

// BatchDispatcher receives closed windows for signing and broadcast.
type BatchDispatcher func(job *BatchJob)

type openWindow struct {
	window  *entities.BatchWindow
	members []uuid.UUID
	timer   *time.Timer
}

// BatchCoordinator maintains at most one open batch window per fee cohort.
// Append and close are serialized under one mutex so a window can neither be
// double-closed nor lose an append racing a close.
type BatchCoordinator struct {
	repo       repositories.BatchWindowRepository
	targetSize int
	maxWait    time.Duration
	dispatch   BatchDispatcher

	mu   sync.Mutex
	open map[string]*openWindow
}

// NewBatchCoordinator creates a new batch coordinator
func NewBatchCoordinator(repo repositories.BatchWindowRepository, targetSize int, maxWait time.Duration) *BatchCoordinator {
	if targetSize < 1 {
		targetSize = 1
	}
	return &BatchCoordinator{
		repo:       repo,
		targetSize: targetSize,
		maxWait:    maxWait,
		open:       make(map[string]*openWindow),
	}
}

// SetDispatcher wires the close callback. Must be called before Join.
func (c *BatchCoordinator) SetDispatcher(dispatch BatchDispatcher) {
	c.dispatch = dispatch
}

// Join adds a settlement to the open window of the cohort, opening one if
// needed, and closes the window once it reaches the target size.
func (c *BatchCoordinator) Join(ctx context.Context, cohort string, settlementID uuid.UUID) (*entities.BatchWindow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ow, ok := c.open[cohort]
	if !ok {
		window, members, err := c.adoptOpen(ctx, cohort)
		if err != nil {
			return nil, err
		}
		if window == nil {
			window = &entities.BatchWindow{
				ID:         utils.GenerateUUIDv7(),
				FeeCohort:  cohort,
				TargetSize: c.targetSize,
				MaxWaitMs:  c.maxWait.Milliseconds(),
				OpenedAt:   time.Now(),
			}
			if err := c.repo.Create(ctx, window); err != nil {
				return nil, err
			}
		}
		ow = &openWindow{window: window, members: members}
		windowID := window.ID
		wait := time.Until(window.OpenedAt.Add(time.Duration(window.MaxWaitMs) * time.Millisecond))
		ow.timer = time.AfterFunc(wait, func() {
			c.closeByID(context.Background(), windowID, "max wait elapsed")
		})
		c.open[cohort] = ow
	}

	member := &entities.BatchMember{
		ID:           utils.GenerateUUIDv7(),
		BatchID:      ow.window.ID,
		SettlementID: settlementID,
		JoinIndex:    len(ow.members),
		CreatedAt:    time.Now(),
	}
	if err := c.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	ow.members = append(ow.members, settlementID)

	if len(ow.members) >= c.targetSize {
		c.closeLocked(ctx, cohort, ow, "target size reached")
	}
	return ow.window, nil
}

// adoptOpen loads the cohort's persisted open window, if one survived a
// restart, and rebuilds its member list so new joins continue where the
// previous process stopped. Returns a nil window when the cohort has none.
func (c *BatchCoordinator) adoptOpen(ctx context.Context, cohort string) (*entities.BatchWindow, []uuid.UUID, error) {
	window, err := c.repo.GetOpenByCohort(ctx, cohort)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	members, err := c.repo.Members(ctx, window.ID)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.SettlementID)
	}
	logger.Info(ctx, "Adopted open batch window",
		zap.String("window_id", window.ID.String()),
		zap.String("cohort", cohort),
		zap.Int("members", len(ids)))
	return window, ids, nil
}

// closeByID closes the window holding the given ID if it is still open.
// Safe to call from the max-wait timer racing a size-triggered close.
func (c *BatchCoordinator) closeByID(ctx context.Context, windowID uuid.UUID, cause string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for cohort, ow := range c.open {
		if ow.window.ID == windowID {
			c.closeLocked(ctx, cohort, ow, cause)
			return
		}
	}
}

// closeLocked is the close-and-dispatch critical section. Caller holds c.mu.
func (c *BatchCoordinator) closeLocked(ctx context.Context, cohort string, ow *openWindow, cause string) {
	if ow.timer != nil {
		ow.timer.Stop()
	}
	delete(c.open, cohort)

	if err := c.repo.Close(ctx, ow.window.ID); err != nil {
		if errors.Is(err, domainerrors.ErrBatchClosed) {
			return
		}
		logger.Error(ctx, "Failed to close batch window",
			zap.String("window_id", ow.window.ID.String()), zap.Error(err))
		return
	}
	now := time.Now()
	ow.window.ClosedAt = &now

	logger.Info(ctx, "Batch window closed",
		zap.String("window_id", ow.window.ID.String()),
		zap.String("cohort", cohort),
		zap.Int("members", len(ow.members)),
		zap.String("cause", cause))

	if c.dispatch != nil && len(ow.members) > 0 {
		job := &BatchJob{WindowID: ow.window.ID, MemberIDs: append([]uuid.UUID(nil), ow.members...)}
		go c.dispatch(job)
	}
}

// CloseDue force-closes any open window whose max wait deadline has passed.
// Used by the recovery job after a restart, when in-memory timers are gone:
// the persisted windows are swept too, so members stranded in a window the
// previous process never closed still get dispatched.
func (c *BatchCoordinator) CloseDue(ctx context.Context) {
	now := time.Now()

	c.mu.Lock()
	tracked := make(map[uuid.UUID]bool, len(c.open))
	for cohort, ow := range c.open {
		deadline := ow.window.OpenedAt.Add(time.Duration(ow.window.MaxWaitMs) * time.Millisecond)
		if now.After(deadline) {
			c.closeLocked(ctx, cohort, ow, "deadline recovery")
			continue
		}
		tracked[ow.window.ID] = true
	}
	c.mu.Unlock()

	windows, err := c.repo.ListOpen(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to list open batch windows", zap.Error(err))
		return
	}
	for _, window := range windows {
		if tracked[window.ID] {
			continue
		}
		deadline := window.OpenedAt.Add(time.Duration(window.MaxWaitMs) * time.Millisecond)
		if now.Before(deadline) {
			continue
		}
		c.closeOrphaned(ctx, window)
	}
}

// closeOrphaned closes a persisted window that no in-memory state covers and
// dispatches its members. The repo-level closed_at guard keeps a racing
// in-memory close from producing a second job.
func (c *BatchCoordinator) closeOrphaned(ctx context.Context, window *entities.BatchWindow) {
	if err := c.repo.Close(ctx, window.ID); err != nil {
		if errors.Is(err, domainerrors.ErrBatchClosed) {
			return
		}
		logger.Error(ctx, "Failed to close orphaned batch window",
			zap.String("window_id", window.ID.String()), zap.Error(err))
		return
	}
	members, err := c.repo.Members(ctx, window.ID)
	if err != nil {
		logger.Error(ctx, "Failed to load members of orphaned batch window",
			zap.String("window_id", window.ID.String()), zap.Error(err))
		return
	}
	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.SettlementID)
	}

	logger.Info(ctx, "Batch window closed",
		zap.String("window_id", window.ID.String()),
		zap.String("cohort", window.FeeCohort),
		zap.Int("members", len(memberIDs)),
		zap.String("cause", "restart recovery"))

	if c.dispatch != nil && len(memberIDs) > 0 {
		go c.dispatch(&BatchJob{WindowID: window.ID, MemberIDs: memberIDs})
	}
}

// RecordFeeShares persists the amortized fee share of each member of a
// closed window, keyed by settlement ID.
func (c *BatchCoordinator) RecordFeeShares(ctx context.Context, windowID uuid.UUID, shares map[uuid.UUID]int64) error {
	members, err := c.repo.Members(ctx, windowID)
	if err != nil {
		return err
	}
	for _, member := range members {
		share, ok := shares[member.SettlementID]
		if !ok {
			continue
		}
		if err := c.repo.SetMemberFeeShare(ctx, member.ID, share); err != nil {
			return err
		}
	}
	return nil
}

// SplitFeeShares divides totalFee across n members so shares sum exactly to
// totalFee, assigning the rounding remainder to the earliest-joined member.
func SplitFeeShares(totalFee int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := totalFee / int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
	}
	shares[0] += totalFee - base*int64(n)
	return shares
}
