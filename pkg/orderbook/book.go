// Package orderbook maintains price ladders from depth snapshots and
// incremental updates, the stateful half of the realtime dataflow demo.
// Prices stay the decimal strings the feed shipped, so levels never drift
// through float formatting.
package orderbook

import (
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

var (
	// ErrStaleUpdate is returned when an update's sequence is not newer
	// than the book's.
	ErrStaleUpdate = errors.New("stale update")
	// ErrNoSnapshot is returned when an update arrives before any snapshot.
	ErrNoSnapshot = errors.New("no snapshot applied")
	// ErrSymbolMismatch is returned when an update names another symbol.
	ErrSymbolMismatch = errors.New("update symbol does not match book")
)

// Update is one depth message: a full snapshot or an incremental change
// set. Levels are ["price", "quantity"] decimal-string pairs; a zero
// quantity deletes the level.
type Update struct {
	Symbol   string      `json:"symbol"`
	Sequence uint64      `json:"sequence"`
	Snapshot bool        `json:"snapshot,omitempty"`
	Bids     [][2]string `json:"bids"`
	Asks     [][2]string `json:"asks"`
}

// Level is one price level of a ladder.
type Level struct {
	Price    string  `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Top is a view of the best levels on both sides, bids descending and asks
// ascending.
type Top struct {
	Symbol   string  `json:"symbol"`
	Sequence uint64  `json:"sequence"`
	Bids     []Level `json:"bids"`
	Asks     []Level `json:"asks"`
}

type entry struct {
	price float64
	qty   float64
}

// Book folds depth updates into bid and ask ladders. It is not safe for
// concurrent use; the aggregator stage owns it on a single goroutine.
type Book struct {
	symbol   string
	sequence uint64
	synced   bool
	bids     map[string]entry
	asks     map[string]entry
}

// NewBook returns an empty book for symbol. It accepts no incremental
// updates until a snapshot has been applied.
func NewBook(symbol string) *Book {
	return &Book{
		symbol: symbol,
		bids:   make(map[string]entry),
		asks:   make(map[string]entry),
	}
}

// Symbol returns the symbol the book tracks.
func (b *Book) Symbol() string {
	return b.symbol
}

// Sequence returns the sequence of the last applied message.
func (b *Book) Sequence() uint64 {
	return b.sequence
}

// Apply routes a message to ApplySnapshot or ApplyUpdate.
func (b *Book) Apply(u Update) error {
	if u.Snapshot {
		return b.ApplySnapshot(u)
	}

	return b.ApplyUpdate(u)
}

// ApplySnapshot replaces both ladders. A level error leaves the previous
// state untouched.
func (b *Book) ApplySnapshot(u Update) error {
	if err := b.checkSymbol(u); err != nil {
		return err
	}

	bids := make(map[string]entry, len(u.Bids))
	if err := applyLevels(bids, u.Bids); err != nil {
		return err
	}
	asks := make(map[string]entry, len(u.Asks))
	if err := applyLevels(asks, u.Asks); err != nil {
		return err
	}

	b.bids, b.asks = bids, asks
	b.sequence = u.Sequence
	b.synced = true

	return nil
}

// ApplyUpdate folds an incremental change set into the ladders. Updates
// older than the book are rejected with ErrStaleUpdate; a level error marks
// the book out of sync until the next snapshot.
func (b *Book) ApplyUpdate(u Update) error {
	if err := b.checkSymbol(u); err != nil {
		return err
	}
	if !b.synced {
		return errors.Wrapf(ErrNoSnapshot, "book %q", b.symbol)
	}
	if u.Sequence <= b.sequence {
		return errors.Wrapf(ErrStaleUpdate, "sequence %d at %d", u.Sequence, b.sequence)
	}

	if err := applyLevels(b.bids, u.Bids); err != nil {
		b.synced = false
		return err
	}
	if err := applyLevels(b.asks, u.Asks); err != nil {
		b.synced = false
		return err
	}

	b.sequence = u.Sequence

	return nil
}

// BestBid returns the highest bid.
func (b *Book) BestBid() (Level, bool) {
	key, e, ok := best(b.bids, higher)
	if !ok {
		return Level{}, false
	}

	return Level{Price: key, Quantity: e.qty}, true
}

// BestAsk returns the lowest ask.
func (b *Book) BestAsk() (Level, bool) {
	key, e, ok := best(b.asks, lower)
	if !ok {
		return Level{}, false
	}

	return Level{Price: key, Quantity: e.qty}, true
}

// Spread returns the distance between the best ask and the best bid.
func (b *Book) Spread() (float64, bool) {
	_, bid, bidOK := best(b.bids, higher)
	_, ask, askOK := best(b.asks, lower)
	if !bidOK || !askOK {
		return 0, false
	}

	return ask.price - bid.price, true
}

// Mid returns the midpoint between the best bid and the best ask.
func (b *Book) Mid() (float64, bool) {
	_, bid, bidOK := best(b.bids, higher)
	_, ask, askOK := best(b.asks, lower)
	if !bidOK || !askOK {
		return 0, false
	}

	return (bid.price + ask.price) / 2, true
}

// Depth reports the level counts of both sides.
func (b *Book) Depth() (bids, asks int) {
	return len(b.bids), len(b.asks)
}

// Top returns the best depth levels per side. A non-positive depth keeps
// every level.
func (b *Book) Top(depth int) Top {
	return Top{
		Symbol:   b.symbol,
		Sequence: b.sequence,
		Bids:     sideLevels(b.bids, depth, higher),
		Asks:     sideLevels(b.asks, depth, lower),
	}
}

func (b *Book) checkSymbol(u Update) error {
	if u.Symbol != "" && u.Symbol != b.symbol {
		return errors.Wrapf(ErrSymbolMismatch, "update %q on book %q", u.Symbol, b.symbol)
	}

	return nil
}

var (
	higher = func(a, b float64) bool { return a > b }
	lower  = func(a, b float64) bool { return a < b }
)

func applyLevels(side map[string]entry, levels [][2]string) error {
	for _, lvl := range levels {
		price, err := strconv.ParseFloat(lvl[0], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid price %q", lvl[0])
		}
		qty, err := strconv.ParseFloat(lvl[1], 64)
		if err != nil {
			return errors.Wrapf(err, "invalid quantity %q", lvl[1])
		}

		if qty == 0 {
			delete(side, lvl[0])
			continue
		}
		side[lvl[0]] = entry{price: price, qty: qty}
	}

	return nil
}

func best(side map[string]entry, better func(a, b float64) bool) (string, entry, bool) {
	var (
		bestKey string
		bestE   entry
		found   bool
	)
	for key, e := range side {
		if !found || better(e.price, bestE.price) {
			bestKey, bestE, found = key, e, true
		}
	}

	return bestKey, bestE, found
}

func sideLevels(side map[string]entry, depth int, better func(a, b float64) bool) []Level {
	type priced struct {
		key string
		e   entry
	}

	all := make([]priced, 0, len(side))
	for key, e := range side {
		all = append(all, priced{key: key, e: e})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].e.price != all[j].e.price {
			return better(all[i].e.price, all[j].e.price)
		}
		return all[i].key < all[j].key
	})

	if depth > 0 && depth < len(all) {
		all = all[:depth]
	}

	out := make([]Level, len(all))
	for i, p := range all {
		out[i] = Level{Price: p.key, Quantity: p.e.qty}
	}

	return out
}
