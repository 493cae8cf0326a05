package usecases_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"rune-settle.backend/internal/domain/entities"
	"rune-settle.backend/internal/usecases"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock SettlementRequestRepository
type MockSettlementRequestRepository struct {
	mock.Mock
}

func (m *MockSettlementRequestRepository) Create(ctx context.Context, req *entities.SettlementRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementRequest), args.Error(1)
}

func (m *MockSettlementRequestRepository) GetByIdempotencyKey(ctx context.Context, ownerID uuid.UUID, key string) (*entities.SettlementRequest, error) {
	args := m.Called(ctx, ownerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementRequest), args.Error(1)
}

func (m *MockSettlementRequestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*entities.SettlementRequest, int, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.SettlementRequest), args.Int(1), args.Error(2)
}

func (m *MockSettlementRequestRepository) ListByOwnerAndRune(ctx context.Context, ownerID uuid.UUID, runeKey string) ([]*entities.SettlementRequest, error) {
	args := m.Called(ctx, ownerID, runeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementRequest), args.Error(1)
}

func (m *MockSettlementRequestRepository) ListByStatus(ctx context.Context, statuses []entities.SettlementStatus, limit int) ([]*entities.SettlementRequest, error) {
	args := m.Called(ctx, statuses, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementRequest), args.Error(1)
}

func (m *MockSettlementRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entities.SettlementStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) SetTxid(ctx context.Context, id uuid.UUID, txid string) error {
	args := m.Called(ctx, id, txid)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) SetBatchID(ctx context.Context, id uuid.UUID, batchID uuid.UUID) error {
	args := m.Called(ctx, id, batchID)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) SetConfirmations(ctx context.Context, id uuid.UUID, confirmations int32) error {
	args := m.Called(ctx, id, confirmations)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) SetFailureReason(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) SetFee(ctx context.Context, id uuid.UUID, rateSatPerVb float64, totalSats int64, usd float64) error {
	args := m.Called(ctx, id, rateSatPerVb, totalSats, usd)
	return args.Error(0)
}

func (m *MockSettlementRequestRepository) Archive(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock SettlementEventRepository
type MockSettlementEventRepository struct {
	mock.Mock
}

func (m *MockSettlementEventRepository) Create(ctx context.Context, event *entities.SettlementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSettlementEventRepository) GetBySettlementID(ctx context.Context, settlementID uuid.UUID) ([]*entities.SettlementEvent, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementEvent), args.Error(1)
}

// Mock RuneBalanceRepository
type MockRuneBalanceRepository struct {
	mock.Mock
}

func (m *MockRuneBalanceRepository) Get(ctx context.Context, ownerID uuid.UUID, runeKey string) (*entities.RuneBalance, error) {
	args := m.Called(ctx, ownerID, runeKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RuneBalance), args.Error(1)
}

func (m *MockRuneBalanceRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RuneBalance, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.RuneBalance), args.Error(1)
}

func (m *MockRuneBalanceRepository) Upsert(ctx context.Context, balance *entities.RuneBalance) error {
	args := m.Called(ctx, balance)
	return args.Error(0)
}

func (m *MockRuneBalanceRepository) Hold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	args := m.Called(ctx, ownerID, runeKey, amount)
	return args.Error(0)
}

func (m *MockRuneBalanceRepository) ReleaseHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64) error {
	args := m.Called(ctx, ownerID, runeKey, amount)
	return args.Error(0)
}

func (m *MockRuneBalanceRepository) SettleHold(ctx context.Context, ownerID uuid.UUID, runeKey string, amount int64, txid string) error {
	args := m.Called(ctx, ownerID, runeKey, amount, txid)
	return args.Error(0)
}

// Mock SavedAddressRepository
type MockSavedAddressRepository struct {
	mock.Mock
}

func (m *MockSavedAddressRepository) Create(ctx context.Context, addr *entities.SavedAddress) error {
	args := m.Called(ctx, addr)
	return args.Error(0)
}

func (m *MockSavedAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SavedAddress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SavedAddress), args.Error(1)
}

func (m *MockSavedAddressRepository) GetByAddress(ctx context.Context, ownerID uuid.UUID, address string) (*entities.SavedAddress, error) {
	args := m.Called(ctx, ownerID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SavedAddress), args.Error(1)
}

func (m *MockSavedAddressRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.SavedAddress, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SavedAddress), args.Error(1)
}

func (m *MockSavedAddressRepository) SetPrimary(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockSavedAddressRepository) TouchUsage(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSavedAddressRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// Mock BatchWindowRepository
type MockBatchWindowRepository struct {
	mock.Mock
}

func (m *MockBatchWindowRepository) Create(ctx context.Context, window *entities.BatchWindow) error {
	args := m.Called(ctx, window)
	return args.Error(0)
}

func (m *MockBatchWindowRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.BatchWindow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BatchWindow), args.Error(1)
}

func (m *MockBatchWindowRepository) GetOpenByCohort(ctx context.Context, cohort string) (*entities.BatchWindow, error) {
	args := m.Called(ctx, cohort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BatchWindow), args.Error(1)
}

func (m *MockBatchWindowRepository) ListOpen(ctx context.Context) ([]*entities.BatchWindow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BatchWindow), args.Error(1)
}

func (m *MockBatchWindowRepository) AddMember(ctx context.Context, member *entities.BatchMember) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockBatchWindowRepository) Members(ctx context.Context, batchID uuid.UUID) ([]*entities.BatchMember, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.BatchMember), args.Error(1)
}

func (m *MockBatchWindowRepository) SetMemberFeeShare(ctx context.Context, memberID uuid.UUID, feeShareSats int64) error {
	args := m.Called(ctx, memberID, feeShareSats)
	return args.Error(0)
}

func (m *MockBatchWindowRepository) Close(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock Signer
type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) Sign(ctx context.Context, tx *usecases.UnsignedTxDescriptor) ([]byte, error) {
	args := m.Called(ctx, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Mock Broadcaster
type MockBroadcaster struct {
	mock.Mock
}

func (m *MockBroadcaster) Broadcast(ctx context.Context, signedTx []byte) (string, error) {
	args := m.Called(ctx, signedTx)
	return args.String(0), args.Error(1)
}

// Mock ChainQuery
type MockChainQuery struct {
	mock.Mock
}

func (m *MockChainQuery) GetConfirmations(ctx context.Context, txid string) (int32, error) {
	args := m.Called(ctx, txid)
	return args.Get(0).(int32), args.Error(1)
}

// Mock PriceOracle
type MockPriceOracle struct {
	mock.Mock
}

func (m *MockPriceOracle) BtcUsdRate(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

// Mock FeeTierOracle
type MockFeeTierOracle struct {
	mock.Mock
}

func (m *MockFeeTierOracle) CurrentTiers(ctx context.Context) (entities.FeeTiers, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.FeeTiers), args.Error(1)
}
