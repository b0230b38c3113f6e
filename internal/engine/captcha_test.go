package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateChallengeLifecycle(t *testing.T) {
	gate := NewGate(5)

	assert.False(t, gate.Verified(1))
	assert.False(t, gate.Outstanding(1))

	code := gate.Begin(1, "original-event")
	require.Len(t, code, 4)
	assert.True(t, gate.Outstanding(1))

	// A second Begin keeps the same outstanding challenge.
	assert.Equal(t, code, gate.Begin(1, "other-event"))

	result, original, _ := gate.Submit(1, "not-the-code")
	assert.Equal(t, GateWrong, result)
	assert.Nil(t, original)
	assert.True(t, gate.Outstanding(1))

	result, original, _ = gate.Submit(1, "  "+code+"  ")
	assert.Equal(t, GatePass, result)
	assert.Equal(t, "original-event", original)
	assert.True(t, gate.Verified(1))
	assert.False(t, gate.Outstanding(1))
}

func TestGateOtherUserCannotAnswer(t *testing.T) {
	gate := NewGate(5)
	code := gate.Begin(1, nil)

	result, _, _ := gate.Submit(2, code)
	assert.Equal(t, GateWrong, result)
	assert.False(t, gate.Verified(2))

	// User 1's challenge is untouched.
	assert.True(t, gate.Outstanding(1))
	result, _, _ = gate.Submit(1, code)
	assert.Equal(t, GatePass, result)
}

func TestGateRetryCapRemintsCode(t *testing.T) {
	gate := NewGate(3)
	code := gate.Begin(1, nil)

	var result GateResult
	var fresh string
	for i := 0; i < 3; i++ {
		result, _, fresh = gate.Submit(1, "0")
	}
	require.Equal(t, GateReminted, result)
	require.Len(t, fresh, 4)

	// The old code no longer clears the challenge unless it happens to
	// equal the fresh one.
	if fresh != code {
		result, _, _ = gate.Submit(1, code)
		assert.Equal(t, GateWrong, result)
	}

	result, _, _ = gate.Submit(1, fresh)
	assert.Equal(t, GatePass, result)
}
