package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rune-settle.backend/internal/domain/entities"
	domainerrors "rune-settle.backend/internal/domain/errors"
)

func newSavedAddressFixture(t *testing.T) (*SavedAddressRepository, context.Context) {
	db := newTestDB(t)
	createSavedAddressTable(t, db)
	return NewSavedAddressRepository(db), context.Background()
}

func TestSavedAddressRepo_CreateAndLookup(t *testing.T) {
	repo, ctx := newSavedAddressFixture(t)
	owner := uuid.New()

	addr := &entities.SavedAddress{
		ID:      uuid.New(),
		OwnerID: owner,
		Address: "bc1p0xlxvlhemja6c4dqv22uapctqupfhlxm9h8z3k2e72q4k9hcz7vqzk5jj0",
		Label:   "cold storage",
		Type:    entities.ScriptTypeP2TR,
		Network: entities.NetworkMainnet,
	}
	require.NoError(t, repo.Create(ctx, addr))

	got, err := repo.GetByAddress(ctx, owner, addr.Address)
	require.NoError(t, err)
	assert.Equal(t, "cold storage", got.Label)
	assert.Equal(t, entities.ScriptTypeP2TR, got.Type)

	// Re-bookmarking the same address is rejected.
	dup := *addr
	dup.ID = uuid.New()
	assert.True(t, errors.Is(repo.Create(ctx, &dup), domainerrors.ErrAlreadyExists))

	// Another owner cannot see it.
	_, err = repo.GetByAddress(ctx, uuid.New(), addr.Address)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestSavedAddressRepo_SetPrimaryDemotesOthers(t *testing.T) {
	repo, ctx := newSavedAddressFixture(t)
	owner := uuid.New()

	first := &entities.SavedAddress{
		ID: uuid.New(), OwnerID: owner, Label: "a", IsPrimary: true,
		Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	}
	second := &entities.SavedAddress{
		ID: uuid.New(), OwnerID: owner, Label: "b",
		Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
	}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, repo.SetPrimary(ctx, owner, second.ID))

	addrs, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	assert.Equal(t, second.ID, addrs[0].ID, "primary sorts first")
	assert.True(t, addrs[0].IsPrimary)
	assert.False(t, addrs[1].IsPrimary)

	assert.True(t, errors.Is(repo.SetPrimary(ctx, owner, uuid.New()), domainerrors.ErrNotFound))
}

func TestSavedAddressRepo_TouchUsageAndDelete(t *testing.T) {
	repo, ctx := newSavedAddressFixture(t)
	owner := uuid.New()

	addr := &entities.SavedAddress{
		ID: uuid.New(), OwnerID: owner, Label: "hot wallet",
		Address: "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
	}
	require.NoError(t, repo.Create(ctx, addr))

	require.NoError(t, repo.TouchUsage(ctx, addr.ID))
	require.NoError(t, repo.TouchUsage(ctx, addr.ID))

	got, err := repo.GetByID(ctx, addr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UseCount)
	assert.NotNil(t, got.LastUsedAt)

	require.NoError(t, repo.Delete(ctx, owner, addr.ID))
	_, err = repo.GetByID(ctx, addr.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))

	assert.True(t, errors.Is(repo.Delete(ctx, owner, addr.ID), domainerrors.ErrNotFound))
}
