package orderbook_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/orderbook"
)

func TestAggregatorKeepsStateAcrossRuns(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	pipe, err := orderbook.NewPipeline(book, 1)
	require.NoError(t, err)

	ctx := context.Background()

	outputs, err := pipe.Run(ctx, orderbook.UpdateInputs(snapshot()))
	require.NoError(t, err)

	top, err := orderbook.TopOf(outputs)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), top.Sequence)
	require.Len(t, top.Bids, 1)
	assert.Equal(t, orderbook.Level{Price: "100.50", Quantity: 2}, top.Bids[0])

	// The second run folds into the same book.
	outputs, err = pipe.Run(ctx, orderbook.UpdateInputs(orderbook.Update{
		Sequence: 11,
		Bids:     [][2]string{{"100.50", "0"}},
		Asks:     [][2]string{{"100.80", "2"}},
	}))
	require.NoError(t, err)

	top, err = orderbook.TopOf(outputs)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), top.Sequence)
	require.Len(t, top.Bids, 1)
	assert.Equal(t, "100.00", top.Bids[0].Price)
	require.Len(t, top.Asks, 1)
	assert.Equal(t, "100.80", top.Asks[0].Price)
}

func TestAggregatorRejectsStaleRun(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	pipe, err := orderbook.NewPipeline(book, 0)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = pipe.Run(ctx, orderbook.UpdateInputs(snapshot()))
	require.NoError(t, err)

	_, err = pipe.Run(ctx, orderbook.UpdateInputs(orderbook.Update{
		Sequence: 9,
		Bids:     [][2]string{{"100.00", "1"}},
	}))
	require.ErrorIs(t, err, orderbook.ErrStaleUpdate)
	assert.Contains(t, err.Error(), `stage "aggregate"`)
}
