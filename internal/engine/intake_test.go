package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntakeFullWalk(t *testing.T) {
	intake := NewIntake()

	assert.Equal(t, StepTitle, intake.Start(7))
	assert.True(t, intake.Active(7))

	inputs := []struct {
		text string
		next Step
	}{
		{"Account#1", StepAmount},
		{"5000", StepTimeFrame},
		{"2h", StepBank},
		{"ABC", StepSeller},
		{"alice", StepBuyer},
	}
	for _, in := range inputs {
		next, done, ok := intake.Advance(7, in.text)
		require.True(t, ok)
		require.Nil(t, done)
		assert.Equal(t, in.next, next)
	}

	_, done, ok := intake.Advance(7, "bob")
	require.True(t, ok)
	require.NotNil(t, done)
	assert.Equal(t, Draft{
		Title:     "Account#1",
		Amount:    "5000",
		TimeFrame: "2h",
		Bank:      "ABC",
		Seller:    "alice",
		Buyer:     "bob",
	}, *done)
	assert.False(t, intake.Active(7))
}

func TestIntakeNoSession(t *testing.T) {
	intake := NewIntake()

	_, done, ok := intake.Advance(7, "hello")
	assert.False(t, ok)
	assert.Nil(t, done)
}

func TestIntakeRestartOverwrites(t *testing.T) {
	intake := NewIntake()

	intake.Start(7)
	_, _, ok := intake.Advance(7, "first title")
	require.True(t, ok)

	// Starting over discards the partial draft, last writer wins.
	intake.Start(7)
	next, done, ok := intake.Advance(7, "second title")
	require.True(t, ok)
	require.Nil(t, done)
	assert.Equal(t, StepAmount, next)

	for _, text := range []string{"1", "1d", "BANK", "s"} {
		_, done, _ = intake.Advance(7, text)
	}
	_, done, _ = intake.Advance(7, "b")
	require.NotNil(t, done)
	assert.Equal(t, "second title", done.Title)
}

func TestIntakeSessionsIndependent(t *testing.T) {
	intake := NewIntake()

	intake.Start(7)
	intake.Start(8)

	_, _, ok := intake.Advance(7, "seven's deal")
	require.True(t, ok)

	next, _, ok := intake.Advance(8, "eight's deal")
	require.True(t, ok)
	assert.Equal(t, StepAmount, next)
}
