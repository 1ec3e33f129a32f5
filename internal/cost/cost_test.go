package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var opusRates = Rates{InputPerMillion: 15, OutputPerMillion: 75}

func TestAmount(t *testing.T) {
	t.Run("formula", func(t *testing.T) {
		// 1M in at $15 + 1M out at $75
		assert.Equal(t, 90.0, Amount(1_000_000, 1_000_000, opusRates))
	})

	t.Run("small call", func(t *testing.T) {
		got := Amount(12_000, 3_000, opusRates)
		assert.InDelta(t, 0.405, got, 1e-9)
	})

	t.Run("zero tokens cost nothing", func(t *testing.T) {
		assert.Zero(t, Amount(0, 0, opusRates))
	})
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.000001, Round(0.0000014))
	assert.Equal(t, 0.000002, Round(0.0000015))
	assert.Equal(t, 1.5, Round(1.5))
}

func TestTable(t *testing.T) {
	defaults := Rates{InputPerMillion: 1, OutputPerMillion: 2}
	table, err := LoadTable(defaults)
	require.NoError(t, err)

	t.Run("known model", func(t *testing.T) {
		r := table.RatesFor("claude-opus-4-1")
		assert.Equal(t, 15.0, r.InputPerMillion)
		assert.Equal(t, 75.0, r.OutputPerMillion)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		r := table.RatesFor("Claude-Opus-4-1")
		assert.Equal(t, 15.0, r.InputPerMillion)
	})

	t.Run("unknown model falls back to defaults", func(t *testing.T) {
		assert.Equal(t, defaults, table.RatesFor("some-future-model"))
	})
}
