package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/usecases"
)

// captureSink collects terminal verdicts for assertions.
type captureSink struct {
	confirmed chan int32
	failed    chan string
}

func newCaptureSink() *captureSink {
	return &captureSink{
		confirmed: make(chan int32, 1),
		failed:    make(chan string, 1),
	}
}

func (s *captureSink) ConfirmSettlement(ctx context.Context, id uuid.UUID, confirmations int32) error {
	s.confirmed <- confirmations
	return nil
}

func (s *captureSink) FailSettlement(ctx context.Context, id uuid.UUID, reason string) error {
	s.failed <- reason
	return nil
}

func newTestTracker(chain *MockChainQuery, repo *MockSettlementRequestRepository, notifier *usecases.StatusNotifier, grace, horizon time.Duration) (*usecases.ConfirmationTracker, *captureSink) {
	tracker := usecases.NewConfirmationTracker(chain, repo, notifier, 5*time.Millisecond, 6, grace, horizon)
	sink := newCaptureSink()
	tracker.Bind(sink)
	return tracker, sink
}

func TestTracker_ConfirmsAtThreshold(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-1").Return(int32(6), nil)
	repo := new(MockSettlementRequestRepository)

	tracker, sink := newTestTracker(chain, repo, usecases.NewStatusNotifier(), time.Second, time.Minute)
	requestID := uuid.New()
	tracker.Track(requestID, "txid-1")

	select {
	case confirmations := <-sink.confirmed:
		assert.Equal(t, int32(6), confirmations)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never confirmed")
	}

	assert.Eventually(t, func() bool { return !tracker.Active(requestID) }, time.Second, 5*time.Millisecond)
}

func TestTracker_ReportsIntermediateConfirmations(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-2").Return(int32(2), nil)
	repo := new(MockSettlementRequestRepository)
	repo.On("SetConfirmations", mock.Anything, mock.Anything, int32(2)).Return(nil)

	notifier := usecases.NewStatusNotifier()
	tracker, _ := newTestTracker(chain, repo, notifier, time.Second, time.Minute)

	requestID := uuid.New()
	ch, cancel := notifier.Subscribe(requestID)
	defer cancel()

	tracker.Track(requestID, "txid-2")
	defer tracker.Cancel(requestID)

	select {
	case change := <-ch:
		assert.Equal(t, entities.SettlementStatusConfirming, change.Status)
		assert.Equal(t, int32(2), change.Confirmations)
		assert.Equal(t, "txid-2", change.Txid)
	case <-time.After(2 * time.Second):
		t.Fatal("no progress notification")
	}
}

func TestTracker_UnseenTxGoesStale(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-3").Return(int32(0), domainerrors.ErrTxNotFound)
	repo := new(MockSettlementRequestRepository)

	tracker, sink := newTestTracker(chain, repo, usecases.NewStatusNotifier(), 20*time.Millisecond, time.Minute)
	tracker.Track(uuid.New(), "txid-3")

	select {
	case reason := <-sink.failed:
		assert.Equal(t, entities.FailureReasonStale, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never failed the unseen tx")
	}
}

func TestTracker_VanishedAfterConfirmationIsReorg(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-4").Return(int32(2), nil).Once()
	chain.On("GetConfirmations", mock.Anything, "txid-4").Return(int32(0), domainerrors.ErrTxNotFound)
	repo := new(MockSettlementRequestRepository)
	repo.On("SetConfirmations", mock.Anything, mock.Anything, int32(2)).Return(nil)

	tracker, sink := newTestTracker(chain, repo, usecases.NewStatusNotifier(), 20*time.Millisecond, time.Minute)
	tracker.Track(uuid.New(), "txid-4")

	select {
	case reason := <-sink.failed:
		assert.Equal(t, entities.FailureReasonReorged, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never reported the reorg")
	}
}

func TestTracker_HorizonExpiryGoesStale(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-5").Return(int32(1), nil)
	repo := new(MockSettlementRequestRepository)
	repo.On("SetConfirmations", mock.Anything, mock.Anything, int32(1)).Return(nil)

	tracker, sink := newTestTracker(chain, repo, usecases.NewStatusNotifier(), time.Minute, 30*time.Millisecond)
	tracker.Track(uuid.New(), "txid-5")

	select {
	case reason := <-sink.failed:
		assert.Equal(t, entities.FailureReasonStale, reason)
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never expired the horizon")
	}
}

func TestTracker_CancelStopsPolling(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-6").Return(int32(1), nil)
	repo := new(MockSettlementRequestRepository)
	repo.On("SetConfirmations", mock.Anything, mock.Anything, int32(1)).Return(nil)

	tracker, _ := newTestTracker(chain, repo, usecases.NewStatusNotifier(), time.Minute, time.Minute)
	requestID := uuid.New()
	tracker.Track(requestID, "txid-6")
	assert.True(t, tracker.Active(requestID))

	tracker.Cancel(requestID)
	assert.False(t, tracker.Active(requestID))

	// Second Cancel is a no-op.
	assert.NotPanics(t, func() { tracker.Cancel(requestID) })
}

func TestTracker_DuplicateTrackIsNoop(t *testing.T) {
	chain := new(MockChainQuery)
	chain.On("GetConfirmations", mock.Anything, "txid-7").Return(int32(1), nil)
	repo := new(MockSettlementRequestRepository)
	repo.On("SetConfirmations", mock.Anything, mock.Anything, int32(1)).Return(nil)

	tracker, _ := newTestTracker(chain, repo, usecases.NewStatusNotifier(), time.Minute, time.Minute)
	requestID := uuid.New()
	tracker.Track(requestID, "txid-7")
	tracker.Track(requestID, "txid-7")
	assert.True(t, tracker.Active(requestID))
	tracker.Cancel(requestID)
}
