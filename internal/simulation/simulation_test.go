package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestRun(t *testing.T) {
	cfg := Config{Pools: 8, Steps: 2000, Seed: 42}
	reports, err := Run(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Len(t, reports, cfg.Pools)

	for i, r := range reports {
		assert.Equal(t, i, r.Pool)
		total := 0
		for _, n := range r.Ops {
			total += n
		}
		assert.Equal(t, cfg.Steps, total)
		assert.Positive(t, r.Ops["deposit"])
		assert.GreaterOrEqual(t, r.Peak, r.State.Elastic)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	cfg := Config{Pools: 3, Steps: 500, Seed: 7, MaxDeposit: 1000}
	first, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	second, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cfg.Seed = 8
	third, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestRunExtremeAmounts(t *testing.T) {
	// Deposits near the top of the range push conversions into overflow,
	// which must be refused without breaking the books.
	_, err := Run(context.Background(), Config{Pools: 2, Steps: 300, Seed: 3, MaxDeposit: 1 << 62}, nil)
	require.NoError(t, err)
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), Config{Pools: 0, Steps: 10}, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, Config{Pools: 2, Steps: 10}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
