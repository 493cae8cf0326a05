package usecases

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
	"rune-settle.backend/internal/domain/repositories"
)

// RuneLifecycleUsecase aggregates settlement outcomes into the asset-level
// lifecycle view. Records are recomputed from the balance and request set on
// every read, never independently mutated.
type RuneLifecycleUsecase struct {
	balanceRepo repositories.RuneBalanceRepository
	requestRepo repositories.SettlementRequestRepository
}

// NewRuneLifecycleUsecase creates a new rune lifecycle usecase
func NewRuneLifecycleUsecase(
	balanceRepo repositories.RuneBalanceRepository,
	requestRepo repositories.SettlementRequestRepository,
) *RuneLifecycleUsecase {
	return &RuneLifecycleUsecase{
		balanceRepo: balanceRepo,
		requestRepo: requestRepo,
	}
}

// GetRecord computes the lifecycle record for one (owner, rune) pair.
func (u *RuneLifecycleUsecase) GetRecord(ctx context.Context, ownerID uuid.UUID, runeKey string) (*entities.RuneLifecycleRecord, error) {
	balance, err := u.balanceRepo.Get(ctx, ownerID, runeKey)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("rune not found for owner")
		}
		return nil, err
	}
	requests, err := u.requestRepo.ListByOwnerAndRune(ctx, ownerID, runeKey)
	if err != nil {
		return nil, err
	}
	return buildRecord(balance, requests), nil
}

// ListRecords computes lifecycle records for every rune the owner holds,
// sorted by rune key.
func (u *RuneLifecycleUsecase) ListRecords(ctx context.Context, ownerID uuid.UUID) ([]*entities.RuneLifecycleRecord, error) {
	balances, err := u.balanceRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	records := make([]*entities.RuneLifecycleRecord, 0, len(balances))
	for _, balance := range balances {
		requests, err := u.requestRepo.ListByOwnerAndRune(ctx, ownerID, balance.RuneKey)
		if err != nil {
			return nil, err
		}
		records = append(records, buildRecord(balance, requests))
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].RuneKey < records[j].RuneKey
	})
	return records, nil
}

// buildRecord derives the lifecycle state from the request set:
// virtual when nothing is in flight and nothing settled, pending while any
// request is non-terminal, native once any request confirmed on-chain.
// Partial settlements keep the record pending-or-native with the settled
// fraction exposed as settledAmount/totalAmount.
func buildRecord(balance *entities.RuneBalance, requests []*entities.SettlementRequest) *entities.RuneLifecycleRecord {
	record := &entities.RuneLifecycleRecord{
		RuneKey:       balance.RuneKey,
		RuneName:      balance.RuneName,
		State:         entities.RuneStateVirtual,
		TotalAmount:   balance.TotalAmount,
		SettledAmount: balance.SettledAmount,
	}
	if balance.TotalAmount == 0 && balance.SettledAmount == 0 {
		record.State = entities.RuneStateDraft
	}

	var nativeTxid string
	inFlight := false
	for _, req := range requests {
		switch {
		case req.Status == entities.SettlementStatusConfirmed && req.Txid.Valid:
			// Latest confirmed txid wins; requests arrive newest-last here.
			nativeTxid = req.Txid.String
		case !req.Status.IsTerminal() && req.Amount > 0:
			inFlight = true
			record.PendingAmount += req.Amount
		}
	}

	if nativeTxid != "" {
		record.State = entities.RuneStateNative
		record.NativeTxid = nativeTxid
	} else if balance.NativeTxid.Valid {
		record.State = entities.RuneStateNative
		record.NativeTxid = balance.NativeTxid.String
	} else if inFlight {
		record.State = entities.RuneStatePending
	}
	return record
}
