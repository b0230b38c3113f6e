package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("seller")
	require.NoError(t, err)
	assert.Equal(t, RoleSeller, role)

	role, err = ParseRole("buyer")
	require.NoError(t, err)
	assert.Equal(t, RoleBuyer, role)

	_, err = ParseRole("admin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusWaitingConfirmation.Terminal())
	assert.False(t, StatusAwaitingPayment.Terminal())
	assert.False(t, StatusPaymentReceived.Terminal())
	assert.True(t, StatusReleased.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.True(t, StatusExpired.Terminal())
}

func TestDealConfirmTransitions(t *testing.T) {
	d := NewDeal("title", "100", "1h", "ABC", "alice", "bob", time.Now())

	require.NoError(t, d.Confirm(RoleSeller, "alice"))
	assert.Equal(t, StatusWaitingConfirmation, d.Status)

	require.NoError(t, d.Confirm(RoleBuyer, "bob"))
	assert.Equal(t, StatusAwaitingPayment, d.Status)

	// Confirmation is closed once the deal moved on.
	assert.ErrorIs(t, d.Confirm(RoleSeller, "alice"), ErrInvalidState)
}

func TestDealVoteNeedsTwoDistinctHandles(t *testing.T) {
	d := NewDeal("title", "100", "1h", "ABC", "alice", "bob", time.Now())
	d.Status = StatusPaymentReceived

	n, err := d.VoteRelease("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = d.VoteRelease("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, StatusPaymentReceived, d.Status)

	n, err = d.VoteRelease("bob")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, StatusReleased, d.Status)
}

func TestDealClone(t *testing.T) {
	d := NewDeal("title", "100", "1h", "ABC", "alice", "bob", time.Now())
	d.Status = StatusPaymentReceived
	_, err := d.VoteRelease("alice")
	require.NoError(t, err)

	c := d.Clone()
	c.ReleaseVotes["bob"] = struct{}{}

	assert.Len(t, d.ReleaseVotes, 1)
	assert.Len(t, c.ReleaseVotes, 2)
}
