package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/escrow-express/deal-bot/internal/engine"
	"github.com/escrow-express/deal-bot/internal/models"
)

func TestParseCallback(t *testing.T) {
	t.Run("valid confirm data", func(t *testing.T) {
		action, role, dealID, err := parseCallback("confirm_seller_DEAL1")
		require.NoError(t, err)
		assert.Equal(t, "confirm", action)
		assert.Equal(t, "seller", role)
		assert.Equal(t, "DEAL1", dealID)
	})

	t.Run("deal id keeps embedded underscores intact", func(t *testing.T) {
		_, _, dealID, err := parseCallback("confirm_buyer_DEAL_1")
		require.NoError(t, err)
		assert.Equal(t, "DEAL_1", dealID)
	})

	t.Run("malformed data", func(t *testing.T) {
		for _, data := range []string{"", "confirm", "confirm_seller", "confirm__DEAL1", "_seller_DEAL1"} {
			_, _, _, err := parseCallback(data)
			assert.ErrorIs(t, err, models.ErrInvalidInput, "data %q", data)
		}
	})
}

func TestPromptsCoverEveryStep(t *testing.T) {
	for step := engine.StepTitle; step <= engine.StepBuyer; step++ {
		assert.NotEmpty(t, prompts[step], "step %d", step)
	}
}
