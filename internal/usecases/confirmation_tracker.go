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
	"rune-settle.backend/pkg/metrics"
)

// terminalSink receives the tracker's terminal verdicts. Implemented by the
// settlement orchestrator, which owns the balance discipline.
type terminalSink interface {
	ConfirmSettlement(ctx context.Context, id uuid.UUID, confirmations int32) error
	FailSettlement(ctx context.Context, id uuid.UUID, reason string) error
}

// ConfirmationTracker polls the chain-query service for broadcast
// transactions and drives Confirming requests to a terminal status. At most
// one poller runs per request; cancellation propagates before any poll after
// the request becomes terminal.
type ConfirmationTracker struct {
	chain                 ChainQuery
	requestRepo           repositories.SettlementRequestRepository
	notifier              *StatusNotifier
	sink                  terminalSink
	pollInterval          time.Duration
	requiredConfirmations int32
	// notFoundGrace is how long a tx may be unobservable before it is
	// declared evicted or reorged.
	notFoundGrace time.Duration
	// horizon is the maximum total time a tx may stay unconfirmed.
	horizon time.Duration

	mu      sync.Mutex
	pollers map[uuid.UUID]context.CancelFunc
}

// NewConfirmationTracker creates a new confirmation tracker
func NewConfirmationTracker(
	chain ChainQuery,
	requestRepo repositories.SettlementRequestRepository,
	notifier *StatusNotifier,
	pollInterval time.Duration,
	requiredConfirmations int32,
	notFoundGrace time.Duration,
	horizon time.Duration,
) *ConfirmationTracker {
	return &ConfirmationTracker{
		chain:                 chain,
		requestRepo:           requestRepo,
		notifier:              notifier,
		pollInterval:          pollInterval,
		requiredConfirmations: requiredConfirmations,
		notFoundGrace:         notFoundGrace,
		horizon:               horizon,
		pollers:               make(map[uuid.UUID]context.CancelFunc),
	}
}

// Bind wires the terminal sink. Must be called before Track.
func (t *ConfirmationTracker) Bind(sink terminalSink) {
	t.sink = sink
}

// Track starts polling for the request's txid. A second Track call for the
// same request is a no-op while its poller is alive.
func (t *ConfirmationTracker) Track(requestID uuid.UUID, txid string) {
	t.mu.Lock()
	if _, exists := t.pollers[requestID]; exists {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.pollers[requestID] = cancel
	t.mu.Unlock()

	go t.poll(ctx, requestID, txid)
}

// Cancel stops the poller for a request, if any.
func (t *ConfirmationTracker) Cancel(requestID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cancel, ok := t.pollers[requestID]; ok {
		cancel()
		delete(t.pollers, requestID)
	}
}

// Shutdown stops every running poller. Trackable work is re-attached on the
// next recovery sweep after restart.
func (t *ConfirmationTracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, cancel := range t.pollers {
		cancel()
		delete(t.pollers, id)
	}
}

// Active reports whether a poller is running for the request.
func (t *ConfirmationTracker) Active(requestID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pollers[requestID]
	return ok
}

func (t *ConfirmationTracker) poll(ctx context.Context, requestID uuid.UUID, txid string) {
	defer t.Cancel(requestID)

	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	started := time.Now()
	var everConfirmed bool
	var notFoundSince time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		metrics.ConfirmationPolls.Inc()

		confirmations, err := t.chain.GetConfirmations(ctx, txid)
		switch {
		case err == nil:
			notFoundSince = time.Time{}
			if confirmations > 0 {
				everConfirmed = true
			}
			if confirmations >= t.requiredConfirmations {
				t.finishConfirmed(requestID, confirmations)
				return
			}
			t.reportProgress(ctx, requestID, txid, confirmations)
		case errors.Is(err, domainerrors.ErrTxNotFound):
			if notFoundSince.IsZero() {
				notFoundSince = time.Now()
			}
			if time.Since(notFoundSince) >= t.notFoundGrace {
				reason := entities.FailureReasonStale
				if everConfirmed {
					reason = entities.FailureReasonReorged
				}
				t.finishFailed(requestID, reason)
				return
			}
		default:
			// Transient query failure; keep polling within the horizon.
			logger.Warn(ctx, "Confirmation poll failed",
				zap.String("txid", txid), zap.Error(err))
		}

		if time.Since(started) >= t.horizon {
			t.finishFailed(requestID, entities.FailureReasonStale)
			return
		}
	}
}

func (t *ConfirmationTracker) reportProgress(ctx context.Context, requestID uuid.UUID, txid string, confirmations int32) {
	if err := t.requestRepo.SetConfirmations(ctx, requestID, confirmations); err != nil {
		logger.Error(ctx, "Failed to persist confirmations",
			zap.String("request_id", requestID.String()), zap.Error(err))
		return
	}
	t.notifier.Publish(entities.StatusChange{
		RequestID:     requestID,
		Status:        entities.SettlementStatusConfirming,
		Txid:          txid,
		Confirmations: confirmations,
	})
}

func (t *ConfirmationTracker) finishConfirmed(requestID uuid.UUID, confirmations int32) {
	ctx := context.Background()
	if err := t.sink.ConfirmSettlement(ctx, requestID, confirmations); err != nil {
		logger.Error(ctx, "Failed to confirm settlement",
			zap.String("request_id", requestID.String()), zap.Error(err))
	}
}

func (t *ConfirmationTracker) finishFailed(requestID uuid.UUID, reason string) {
	ctx := context.Background()
	if err := t.sink.FailSettlement(ctx, requestID, reason); err != nil {
		logger.Error(ctx, "Failed to fail settlement",
			zap.String("request_id", requestID.String()), zap.Error(err))
	}
}
