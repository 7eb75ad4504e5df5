package orderbook_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/orderbook"
)

func snapshot() orderbook.Update {
	return orderbook.Update{
		Symbol:   "BTCUSDT",
		Sequence: 10,
		Snapshot: true,
		Bids: [][2]string{
			{"100.50", "2"},
			{"100.00", "5"},
			{"99.50", "1"},
		},
		Asks: [][2]string{
			{"101.00", "3"},
			{"101.50", "4"},
		},
	}
}

func TestApplySnapshot(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	assert.Equal(t, uint64(10), book.Sequence())

	bids, asks := book.Depth()
	assert.Equal(t, 3, bids)
	assert.Equal(t, 2, asks)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbook.Level{Price: "100.50", Quantity: 2}, bid)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, orderbook.Level{Price: "101.00", Quantity: 3}, ask)

	spread, ok := book.Spread()
	require.True(t, ok)
	assert.InDelta(t, 0.5, spread, 1e-9)

	mid, ok := book.Mid()
	require.True(t, ok)
	assert.InDelta(t, 100.75, mid, 1e-9)
}

func TestApplySnapshotReplacesLadders(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	require.NoError(t, book.ApplySnapshot(orderbook.Update{
		Sequence: 20,
		Snapshot: true,
		Bids:     [][2]string{{"90.00", "1"}},
		Asks:     [][2]string{{"91.00", "1"}},
	}))

	bids, asks := book.Depth()
	assert.Equal(t, 1, bids)
	assert.Equal(t, 1, asks)

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, "90.00", bid.Price)
}

func TestApplyUpdate(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	require.NoError(t, book.ApplyUpdate(orderbook.Update{
		Sequence: 11,
		Bids: [][2]string{
			{"100.50", "0"},
			{"100.00", "7"},
		},
		Asks: [][2]string{
			{"100.75", "1"},
		},
	}))

	assert.Equal(t, uint64(11), book.Sequence())

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbook.Level{Price: "100.00", Quantity: 7}, bid)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, orderbook.Level{Price: "100.75", Quantity: 1}, ask)

	bids, asks := book.Depth()
	assert.Equal(t, 2, bids)
	assert.Equal(t, 3, asks)
}

func TestApplyUpdateStale(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	err := book.ApplyUpdate(orderbook.Update{Sequence: 10, Bids: [][2]string{{"100.00", "9"}}})
	require.ErrorIs(t, err, orderbook.ErrStaleUpdate)

	// The rejected update must not touch the ladder.
	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, orderbook.Level{Price: "100.50", Quantity: 2}, bid)
}

func TestApplyUpdateBeforeSnapshot(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")

	err := book.ApplyUpdate(orderbook.Update{Sequence: 1, Bids: [][2]string{{"100.00", "1"}}})
	require.ErrorIs(t, err, orderbook.ErrNoSnapshot)
}

func TestApplySymbolMismatch(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")

	err := book.ApplySnapshot(orderbook.Update{Symbol: "ETHUSDT", Sequence: 1, Snapshot: true})
	require.ErrorIs(t, err, orderbook.ErrSymbolMismatch)
}

func TestApplyUpdateBadLevelDesyncs(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	err := book.ApplyUpdate(orderbook.Update{Sequence: 11, Bids: [][2]string{{"oops", "1"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid price "oops"`)

	// Out of sync until the next snapshot.
	err = book.ApplyUpdate(orderbook.Update{Sequence: 12, Bids: [][2]string{{"100.00", "1"}}})
	require.ErrorIs(t, err, orderbook.ErrNoSnapshot)

	require.NoError(t, book.ApplySnapshot(snapshot()))
	require.NoError(t, book.ApplyUpdate(orderbook.Update{Sequence: 12, Bids: [][2]string{{"100.00", "1"}}}))
}

func TestApplySnapshotBadLevelKeepsState(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	err := book.ApplySnapshot(orderbook.Update{
		Sequence: 20,
		Snapshot: true,
		Bids:     [][2]string{{"100.00", "not a number"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid quantity")

	assert.Equal(t, uint64(10), book.Sequence())
	bids, asks := book.Depth()
	assert.Equal(t, 3, bids)
	assert.Equal(t, 2, asks)
}

func TestTop(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")
	require.NoError(t, book.ApplySnapshot(snapshot()))

	top := book.Top(2)

	assert.Equal(t, "BTCUSDT", top.Symbol)
	assert.Equal(t, uint64(10), top.Sequence)
	assert.Equal(t, []orderbook.Level{
		{Price: "100.50", Quantity: 2},
		{Price: "100.00", Quantity: 5},
	}, top.Bids)
	assert.Equal(t, []orderbook.Level{
		{Price: "101.00", Quantity: 3},
		{Price: "101.50", Quantity: 4},
	}, top.Asks)

	full := book.Top(0)
	assert.Len(t, full.Bids, 3)
	assert.Len(t, full.Asks, 2)
}

func TestEmptyBook(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")

	_, ok := book.BestBid()
	assert.False(t, ok)
	_, ok = book.BestAsk()
	assert.False(t, ok)
	_, ok = book.Spread()
	assert.False(t, ok)
	_, ok = book.Mid()
	assert.False(t, ok)

	top := book.Top(5)
	assert.Empty(t, top.Bids)
	assert.Empty(t, top.Asks)
}

func TestApplyRoutesBySnapshotFlag(t *testing.T) {
	t.Parallel()

	book := orderbook.NewBook("BTCUSDT")

	require.NoError(t, book.Apply(snapshot()))
	require.NoError(t, book.Apply(orderbook.Update{Sequence: 11, Bids: [][2]string{{"100.60", "1"}}}))

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, "100.60", bid.Price)
}
