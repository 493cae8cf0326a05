package usecases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/domain/repositories"
	"rune-settle.backend/pkg/logger"
	"rune-settle.backend/pkg/metrics"
	"rune-settle.backend/pkg/utils"
)

// SettlementOptions carries the orchestrator knobs taken from config.
type SettlementOptions struct {
	// RequireNetwork rejects destination addresses of any other network.
	RequireNetwork   entities.Network
	BroadcastTimeout time.Duration
	BroadcastRetries int
	RetryBackoffBase time.Duration
}

// SettlementUsecase owns the per-request settlement state machine. It
// validates submissions, applies and releases virtual balance holds, drives
// requests through signing and broadcast, and hands broadcast transactions to
// the confirmation tracker.
type SettlementUsecase struct {
	requestRepo repositories.SettlementRequestRepository
	eventRepo   repositories.SettlementEventRepository
	balanceRepo repositories.RuneBalanceRepository
	savedRepo   repositories.SavedAddressRepository
	uow         repositories.UnitOfWork

	classifier *AddressClassifier
	estimator  *FeeEstimator
	batches    *BatchCoordinator
	tracker    *ConfirmationTracker
	notifier   *StatusNotifier

	signer      Signer
	broadcaster Broadcaster
	priceOracle PriceOracle
	feeOracle   FeeTierOracle

	opts SettlementOptions

	// per-request serialization of state machine mutations
	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
}

// NewSettlementUsecase creates a new settlement usecase and wires itself as
// the batch dispatcher and the tracker's terminal sink.
func NewSettlementUsecase(
	requestRepo repositories.SettlementRequestRepository,
	eventRepo repositories.SettlementEventRepository,
	balanceRepo repositories.RuneBalanceRepository,
	savedRepo repositories.SavedAddressRepository,
	uow repositories.UnitOfWork,
	classifier *AddressClassifier,
	estimator *FeeEstimator,
	batches *BatchCoordinator,
	tracker *ConfirmationTracker,
	notifier *StatusNotifier,
	signer Signer,
	broadcaster Broadcaster,
	priceOracle PriceOracle,
	feeOracle FeeTierOracle,
	opts SettlementOptions,
) *SettlementUsecase {
	u := &SettlementUsecase{
		requestRepo: requestRepo,
		eventRepo:   eventRepo,
		balanceRepo: balanceRepo,
		savedRepo:   savedRepo,
		uow:         uow,
		classifier:  classifier,
		estimator:   estimator,
		batches:     batches,
		tracker:     tracker,
		notifier:    notifier,
		signer:      signer,
		broadcaster: broadcaster,
		priceOracle: priceOracle,
		feeOracle:   feeOracle,
		opts:        opts,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
	if batches != nil {
		batches.SetDispatcher(u.processBatch)
	}
	if tracker != nil {
		tracker.Bind(u)
	}
	return u
}

func (u *SettlementUsecase) lockFor(id uuid.UUID) *sync.Mutex {
	u.lockMu.Lock()
	defer u.lockMu.Unlock()
	if m, ok := u.locks[id]; ok {
		return m
	}
	m := &sync.Mutex{}
	u.locks[id] = m
	return m
}

// releaseLock drops a request's mutex once it reaches a terminal state.
// Terminal requests never transition again, so a late caller getting a
// fresh mutex from lockFor still finds nothing left to serialize.
func (u *SettlementUsecase) releaseLock(id uuid.UUID) {
	u.lockMu.Lock()
	defer u.lockMu.Unlock()
	delete(u.locks, id)
}

// Submit validates and persists a settlement request, applying the virtual
// balance hold atomically. Validation and balance failures happen before any
// state transition. A duplicate idempotency key returns the existing request
// without a second hold.
func (u *SettlementUsecase) Submit(ctx context.Context, ownerID uuid.UUID, input *entities.SubmitSettlementInput) (*entities.SubmitSettlementResponse, error) {
	if input.Amount <= 0 {
		return nil, domainerrors.BadRequest("amount must be positive")
	}
	mode := entities.SettlementMode(input.Mode)
	if !mode.Valid() {
		return nil, domainerrors.BadRequest("unsupported settlement mode")
	}

	classified := u.classifier.Classify(input.DestinationAddress, u.opts.RequireNetwork)
	if !classified.Valid {
		return nil, domainerrors.BadRequest("invalid destination address: " + classified.Error)
	}

	// Idempotent resubmission: same key, same owner returns the original.
	if existing, err := u.requestRepo.GetByIdempotencyKey(ctx, ownerID, input.IdempotencyKey); err == nil && existing != nil {
		return &entities.SubmitSettlementResponse{
			RequestID: existing.ID,
			Status:    existing.Status,
			Duplicate: true,
		}, nil
	} else if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	tiers, err := u.feeOracle.CurrentTiers(ctx)
	if err != nil {
		return nil, fmt.Errorf("fee tiers unavailable: %w", err)
	}
	btcUsd, err := u.priceOracle.BtcUsdRate(ctx)
	if err != nil {
		logger.Warn(ctx, "Price oracle unavailable, fee USD value omitted", zap.Error(err))
		btcUsd = 0
	}

	estimate, err := u.estimator.Estimate(mode, tiers, EstimateTxSizeVb(1), input.CustomFeeRate, btcUsd)
	if err != nil {
		return nil, err
	}

	balance, err := u.balanceRepo.Get(ctx, ownerID, input.RuneKey)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("rune not found for owner")
		}
		return nil, err
	}

	req := &entities.SettlementRequest{
		ID:                 utils.GenerateUUIDv7(),
		IdempotencyKey:     input.IdempotencyKey,
		OwnerID:            ownerID,
		RuneKey:            input.RuneKey,
		RuneName:           balance.RuneName,
		Amount:             input.Amount,
		DestinationAddress: input.DestinationAddress,
		Mode:               mode,
		CustomFeeRate:      input.CustomFeeRate,
		FeeRateSatPerVb:    estimate.FeeRateSatPerVb,
		FeeTotalSats:       estimate.TotalFeeSats,
		FeeUsd:             estimate.UsdValue,
		Status:             entities.SettlementStatusQueued,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.balanceRepo.Hold(txCtx, ownerID, input.RuneKey, input.Amount); err != nil {
			return err
		}
		if err := u.requestRepo.Create(txCtx, req); err != nil {
			return err
		}
		return u.eventRepo.Create(txCtx, &entities.SettlementEvent{
			ID:           utils.GenerateUUIDv7(),
			SettlementID: req.ID,
			EventType:    entities.SettlementEventTypeSubmitted,
			ToStatus:     entities.SettlementStatusQueued,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrInsufficientBalance) {
			return nil, domainerrors.UnprocessableEntity("insufficient virtual balance", domainerrors.ErrInsufficientBalance)
		}
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			// Lost a race with a concurrent identical submission.
			if existing, getErr := u.requestRepo.GetByIdempotencyKey(ctx, ownerID, input.IdempotencyKey); getErr == nil {
				return &entities.SubmitSettlementResponse{
					RequestID: existing.ID,
					Status:    existing.Status,
					Duplicate: true,
				}, nil
			}
		}
		return nil, err
	}

	metrics.SettlementsSubmitted.WithLabelValues(string(mode)).Inc()
	u.notifier.Publish(entities.StatusChange{RequestID: req.ID, Status: req.Status})
	u.touchSavedAddress(ctx, ownerID, input.DestinationAddress)

	logger.Info(ctx, "Settlement submitted",
		zap.String("request_id", req.ID.String()),
		zap.String("rune", req.RuneKey),
		zap.Int64("amount", req.Amount),
		zap.String("mode", string(mode)))

	if mode == entities.SettlementModeBatched {
		if err := u.enterBatch(ctx, req, tiers); err != nil {
			return nil, err
		}
	} else {
		go u.process(req.ID)
	}

	return &entities.SubmitSettlementResponse{
		RequestID: req.ID,
		Status:    req.Status,
		Fee:       estimate,
	}, nil
}

// enterBatch moves a batched request into the open window of its cohort.
// Cohorts are scoped per rune as well as fee tier: a window only ever
// aggregates transfers of a single rune, so its closed batch signs as one
// single-rune transaction.
func (u *SettlementUsecase) enterBatch(ctx context.Context, req *entities.SettlementRequest, tiers entities.FeeTiers) error {
	if err := u.transition(ctx, req.ID, entities.SettlementStatusQueued, entities.SettlementStatusBatching, ""); err != nil {
		return err
	}
	req.Status = entities.SettlementStatusBatching
	cohort := req.RuneKey + "|medium-" + strconv.Itoa(int(tiers.Medium))
	window, err := u.batches.Join(ctx, cohort, req.ID)
	if err != nil {
		u.fail(ctx, req.ID, "batch_join_failed", err.Error())
		return fmt.Errorf("join batch window: %w", err)
	}
	return u.requestRepo.SetBatchID(ctx, req.ID, window.ID)
}

// process drives a single non-batched request from Queued to Confirming.
func (u *SettlementUsecase) process(id uuid.UUID) {
	mu := u.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	ctx := context.Background()
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "Settlement vanished before processing", zap.String("request_id", id.String()), zap.Error(err))
		return
	}
	if req.Status != entities.SettlementStatusQueued {
		return
	}

	if err := u.transition(ctx, id, entities.SettlementStatusQueued, entities.SettlementStatusSigning, ""); err != nil {
		return
	}

	descriptor := &UnsignedTxDescriptor{
		Outputs:         []TxOutput{{Address: req.DestinationAddress, Amount: req.Amount}},
		FeeRateSatPerVb: req.FeeRateSatPerVb,
		RuneKey:         req.RuneKey,
	}
	signed, err := u.signer.Sign(ctx, descriptor)
	if err != nil {
		u.fail(ctx, id, entities.FailureReasonSigning, err.Error())
		return
	}

	if err := u.transition(ctx, id, entities.SettlementStatusSigning, entities.SettlementStatusBroadcasting, ""); err != nil {
		return
	}

	txid, err := u.broadcastWithRetry(ctx, signed)
	if err != nil {
		u.fail(ctx, id, broadcastFailureReason(err), err.Error())
		return
	}

	u.recordBroadcast(ctx, id, txid)
}

// processBatch signs and broadcasts one transaction covering every member of
// a closed batch window, amortizing the fee across members.
func (u *SettlementUsecase) processBatch(job *BatchJob) {
	ctx := context.Background()
	metrics.BatchWindowsClosed.Inc()

	members := make([]*entities.SettlementRequest, 0, len(job.MemberIDs))
	for _, id := range job.MemberIDs {
		req, err := u.requestRepo.GetByID(ctx, id)
		if err != nil {
			logger.Error(ctx, "Batch member missing", zap.String("request_id", id.String()), zap.Error(err))
			continue
		}
		if req.Status != entities.SettlementStatusBatching {
			continue
		}
		members = append(members, req)
	}
	if len(members) == 0 {
		return
	}

	// Price the whole batch at the fee rate its members were quoted.
	feeRate := members[0].FeeRateSatPerVb
	txSize := EstimateTxSizeVb(len(members))
	totalFee := int64(feeRate * float64(txSize))
	shares := SplitFeeShares(totalFee, len(members))

	btcUsd, err := u.priceOracle.BtcUsdRate(ctx)
	if err != nil {
		btcUsd = 0
	}

	outputs := make([]TxOutput, 0, len(members))
	shareBySettlement := make(map[uuid.UUID]int64, len(members))
	for i, req := range members {
		if err := u.transition(ctx, req.ID, entities.SettlementStatusBatching, entities.SettlementStatusSigning, ""); err != nil {
			continue
		}
		usd := float64(shares[i]) / 1e8 * btcUsd
		if err := u.requestRepo.SetFee(ctx, req.ID, feeRate, shares[i], usd); err != nil {
			logger.Error(ctx, "Failed to record amortized fee", zap.String("request_id", req.ID.String()), zap.Error(err))
		}
		shareBySettlement[req.ID] = shares[i]
		outputs = append(outputs, TxOutput{Address: req.DestinationAddress, Amount: req.Amount})
	}
	if err := u.batches.RecordFeeShares(ctx, job.WindowID, shareBySettlement); err != nil {
		logger.Error(ctx, "Failed to record batch fee shares", zap.String("window_id", job.WindowID.String()), zap.Error(err))
	}

	descriptor := &UnsignedTxDescriptor{
		Outputs:         outputs,
		FeeRateSatPerVb: feeRate,
		RuneKey:         members[0].RuneKey,
	}
	signed, err := u.signer.Sign(ctx, descriptor)
	if err != nil {
		for _, req := range members {
			u.fail(ctx, req.ID, entities.FailureReasonSigning, err.Error())
		}
		return
	}

	for _, req := range members {
		if err := u.transition(ctx, req.ID, entities.SettlementStatusSigning, entities.SettlementStatusBroadcasting, ""); err != nil {
			logger.Error(ctx, "Batch member transition failed", zap.String("request_id", req.ID.String()), zap.Error(err))
		}
	}

	txid, err := u.broadcastWithRetry(ctx, signed)
	if err != nil {
		reason := broadcastFailureReason(err)
		for _, req := range members {
			u.fail(ctx, req.ID, reason, err.Error())
		}
		return
	}

	for _, req := range members {
		u.recordBroadcast(ctx, req.ID, txid)
	}
}

// broadcastWithRetry submits the signed transaction under the hard broadcast
// timeout, retrying transient node errors with bounded exponential backoff.
func (u *SettlementUsecase) broadcastWithRetry(ctx context.Context, signed []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.opts.BroadcastTimeout)
	defer cancel()

	backoff := u.opts.RetryBackoffBase
	var lastErr error
	for attempt := 0; attempt <= u.opts.BroadcastRetries; attempt++ {
		txid, err := u.broadcaster.Broadcast(ctx, signed)
		if err == nil {
			return txid, nil
		}
		lastErr = err
		if !domainerrors.IsTransientBroadcast(err) {
			return "", err
		}
		metrics.BroadcastRetries.Inc()
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%s: %w", entities.FailureReasonBroadcastTimeout, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return "", lastErr
}

// recordBroadcast assigns the txid, moves the request to Confirming and
// starts its confirmation poller.
func (u *SettlementUsecase) recordBroadcast(ctx context.Context, id uuid.UUID, txid string) {
	if err := u.requestRepo.SetTxid(ctx, id, txid); err != nil {
		logger.Error(ctx, "Failed to record txid", zap.String("request_id", id.String()), zap.Error(err))
	}
	if err := u.eventRepo.Create(ctx, &entities.SettlementEvent{
		ID:           utils.GenerateUUIDv7(),
		SettlementID: id,
		EventType:    entities.SettlementEventTypeTxid,
		ToStatus:     entities.SettlementStatusBroadcasting,
		Detail:       txid,
		CreatedAt:    time.Now(),
	}); err != nil {
		logger.Error(ctx, "Failed to record txid event", zap.String("request_id", id.String()), zap.Error(err))
	}
	if err := u.transition(ctx, id, entities.SettlementStatusBroadcasting, entities.SettlementStatusConfirming, txid); err != nil {
		return
	}
	u.tracker.Track(id, txid)
}

// transition performs a guarded status transition, records the audit event
// and notifies subscribers.
func (u *SettlementUsecase) transition(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus, txid string) error {
	if !entities.CanTransition(from, to) {
		return domainerrors.ErrIllegalTransition
	}
	if err := u.requestRepo.UpdateStatus(ctx, id, from, to); err != nil {
		logger.Error(ctx, "Status transition failed",
			zap.String("request_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return err
	}
	if err := u.eventRepo.Create(ctx, &entities.SettlementEvent{
		ID:           utils.GenerateUUIDv7(),
		SettlementID: id,
		EventType:    entities.SettlementEventTypeTransitioned,
		FromStatus:   from,
		ToStatus:     to,
		CreatedAt:    time.Now(),
	}); err != nil {
		logger.Error(ctx, "Failed to record transition event", zap.String("request_id", id.String()), zap.Error(err))
	}
	u.notifier.Publish(entities.StatusChange{RequestID: id, Status: to, Txid: txid})
	return nil
}

// ConfirmSettlement is the tracker's success verdict: debit the virtual
// balance permanently and record the native asset reference.
func (u *SettlementUsecase) ConfirmSettlement(ctx context.Context, id uuid.UUID, confirmations int32) error {
	mu := u.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status.IsTerminal() {
		u.releaseLock(id)
		return nil
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.requestRepo.UpdateStatus(txCtx, id, entities.SettlementStatusConfirming, entities.SettlementStatusConfirmed); err != nil {
			return err
		}
		if err := u.requestRepo.SetConfirmations(txCtx, id, confirmations); err != nil {
			return err
		}
		if err := u.balanceRepo.SettleHold(txCtx, req.OwnerID, req.RuneKey, req.Amount, req.Txid.String); err != nil {
			return err
		}
		return u.eventRepo.Create(txCtx, &entities.SettlementEvent{
			ID:           utils.GenerateUUIDv7(),
			SettlementID: id,
			EventType:    entities.SettlementEventTypeTransitioned,
			FromStatus:   entities.SettlementStatusConfirming,
			ToStatus:     entities.SettlementStatusConfirmed,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return err
	}

	metrics.SettlementsTerminal.WithLabelValues(string(entities.SettlementStatusConfirmed), "").Inc()
	u.tracker.Cancel(id)
	u.notifier.Publish(entities.StatusChange{
		RequestID:     id,
		Status:        entities.SettlementStatusConfirmed,
		Txid:          req.Txid.String,
		Confirmations: confirmations,
	})
	logger.Info(ctx, "Settlement confirmed",
		zap.String("request_id", id.String()),
		zap.String("txid", req.Txid.String),
		zap.Int32("confirmations", confirmations))
	u.releaseLock(id)
	return nil
}

// FailSettlement is the tracker's failure verdict.
func (u *SettlementUsecase) FailSettlement(ctx context.Context, id uuid.UUID, reason string) error {
	mu := u.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return u.failLocked(ctx, id, reason, "")
}

// fail moves a request to Failed from any non-terminal state and releases
// its balance hold. Every Failed request carries a non-empty reason.
func (u *SettlementUsecase) fail(ctx context.Context, id uuid.UUID, reason, detail string) {
	if err := u.failLocked(ctx, id, reason, detail); err != nil {
		logger.Error(ctx, "Failed to mark settlement failed",
			zap.String("request_id", id.String()), zap.Error(err))
	}
}

func (u *SettlementUsecase) failLocked(ctx context.Context, id uuid.UUID, reason, detail string) error {
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Status.IsTerminal() {
		u.releaseLock(id)
		return nil
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.requestRepo.UpdateStatus(txCtx, id, req.Status, entities.SettlementStatusFailed); err != nil {
			return err
		}
		if err := u.requestRepo.SetFailureReason(txCtx, id, reason); err != nil {
			return err
		}
		if err := u.balanceRepo.ReleaseHold(txCtx, req.OwnerID, req.RuneKey, req.Amount); err != nil {
			return err
		}
		return u.eventRepo.Create(txCtx, &entities.SettlementEvent{
			ID:           utils.GenerateUUIDv7(),
			SettlementID: id,
			EventType:    entities.SettlementEventTypeTransitioned,
			FromStatus:   req.Status,
			ToStatus:     entities.SettlementStatusFailed,
			Detail:       detail,
			CreatedAt:    time.Now(),
		})
	})
	if err != nil {
		return err
	}

	metrics.SettlementsTerminal.WithLabelValues(string(entities.SettlementStatusFailed), reason).Inc()
	u.tracker.Cancel(id)
	u.notifier.Publish(entities.StatusChange{
		RequestID:     id,
		Status:        entities.SettlementStatusFailed,
		FailureReason: reason,
	})
	logger.Warn(ctx, "Settlement failed",
		zap.String("request_id", id.String()),
		zap.String("reason", reason))
	u.releaseLock(id)
	return nil
}

// GetStatus returns a settlement owned by the caller.
func (u *SettlementUsecase) GetStatus(ctx context.Context, ownerID, id uuid.UUID) (*entities.SettlementRequest, error) {
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != ownerID {
		return nil, domainerrors.ErrNotFound
	}
	return req, nil
}

// ListHistory returns the owner's settlements, newest first.
func (u *SettlementUsecase) ListHistory(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.SettlementRequest, int, error) {
	return u.requestRepo.ListByOwner(ctx, ownerID, limit, offset)
}

// GetEvents returns the transition audit rows for a settlement.
func (u *SettlementUsecase) GetEvents(ctx context.Context, ownerID, id uuid.UUID) ([]*entities.SettlementEvent, error) {
	if _, err := u.GetStatus(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return u.eventRepo.GetBySettlementID(ctx, id)
}

// Subscribe returns a status change stream for the request.
func (u *SettlementUsecase) Subscribe(ctx context.Context, ownerID, id uuid.UUID) (<-chan entities.StatusChange, func(), error) {
	if _, err := u.GetStatus(ctx, ownerID, id); err != nil {
		return nil, nil, err
	}
	ch, cancel := u.notifier.Subscribe(id)
	return ch, cancel, nil
}

// Recover re-attaches confirmation pollers to Confirming requests after a
// restart and fails requests stranded mid-broadcast.
func (u *SettlementUsecase) Recover(ctx context.Context) error {
	inFlight, err := u.requestRepo.ListByStatus(ctx, []entities.SettlementStatus{
		entities.SettlementStatusConfirming,
		entities.SettlementStatusBroadcasting,
		entities.SettlementStatusSigning,
	}, 500)
	if err != nil {
		return err
	}
	for _, req := range inFlight {
		switch req.Status {
		case entities.SettlementStatusConfirming:
			if req.Txid.Valid && !u.tracker.Active(req.ID) {
				u.tracker.Track(req.ID, req.Txid.String)
			}
		case entities.SettlementStatusBroadcasting, entities.SettlementStatusSigning:
			if time.Since(req.UpdatedAt) > u.opts.BroadcastTimeout {
				u.fail(ctx, req.ID, entities.FailureReasonBroadcastTimeout, "stranded by restart")
			}
		}
	}
	return nil
}

// touchSavedAddress bumps bookmark usage stats. Best effort only.
func (u *SettlementUsecase) touchSavedAddress(ctx context.Context, ownerID uuid.UUID, address string) {
	saved, err := u.savedRepo.GetByAddress(ctx, ownerID, address)
	if err != nil || saved == nil {
		return
	}
	if err := u.savedRepo.TouchUsage(ctx, saved.ID); err != nil {
		logger.Debug(ctx, "Failed to touch saved address", zap.Error(err))
	}
}

func broadcastFailureReason(err error) string {
	var be *domainerrors.BroadcastError
	if errors.As(err, &be) {
		return be.Reason
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entities.FailureReasonBroadcastTimeout
	}
	return entities.FailureReasonNodeUnreachable
}
