package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrow-express/deal-bot/internal/models"
)

func newDeal(seller, buyer string, createdAt time.Time) *models.Deal {
	return models.NewDeal("title", "100", "1h", "ABC", seller, buyer, createdAt)
}

func TestRegistryCreateAssignsIDs(t *testing.T) {
	reg := NewRegistry()

	first := reg.Create(newDeal("alice", "bob", time.Now()))
	second := reg.Create(newDeal("carol", "dave", time.Now()))

	assert.Equal(t, "DEAL1", first.ID)
	assert.Equal(t, "DEAL2", second.ID)
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("DEAL1")
	assert.ErrorIs(t, err, models.ErrDealNotFound)
}

func TestRegistryGetReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()
	d := reg.Create(newDeal("alice", "bob", time.Now()))

	snap, err := reg.Get(d.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the registry.
	snap.SellerConfirmed = true
	snap.ReleaseVotes["alice"] = struct{}{}

	again, err := reg.Get(d.ID)
	require.NoError(t, err)
	assert.False(t, again.SellerConfirmed)
	assert.Empty(t, again.ReleaseVotes)
}

func TestRegistryUpdate(t *testing.T) {
	reg := NewRegistry()
	d := reg.Create(newDeal("alice", "bob", time.Now()))

	err := reg.Update(d.ID, func(deal *models.Deal) error {
		deal.ClaimedBy = 99
		return nil
	})
	require.NoError(t, err)

	stored, err := reg.Get(d.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(99), stored.ClaimedBy)

	err = reg.Update("DEAL999", func(*models.Deal) error { return nil })
	assert.ErrorIs(t, err, models.ErrDealNotFound)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Create(newDeal("alice", "bob", time.Now()))
	reg.Create(newDeal("alice", "dave", time.Now()))
	reg.Create(newDeal("carol", "dave", time.Now()))

	mine := reg.List(func(d *models.Deal) bool { return d.IsParty("alice") })
	assert.Len(t, mine, 2)

	none := reg.List(func(d *models.Deal) bool { return d.IsParty("mallory") })
	assert.Empty(t, none)
}

func TestRegistrySweepExpired(t *testing.T) {
	reg := NewRegistry()
	stale := reg.Create(newDeal("alice", "bob", time.Now().Add(-2*time.Hour)))
	fresh := reg.Create(newDeal("carol", "dave", time.Now()))

	expired := reg.SweepExpired(time.Now().Add(-time.Hour))
	require.Len(t, expired, 1)
	assert.Equal(t, stale.ID, expired[0].ID)
	assert.Equal(t, models.StatusExpired, expired[0].Status)

	_, err := reg.Get(stale.ID)
	assert.ErrorIs(t, err, models.ErrDealNotFound)
	_, err = reg.Get(fresh.ID)
	require.NoError(t, err)
}
