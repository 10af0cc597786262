package engine

import (
	"errors"

	"github.com/tidwall/btree"
)

var (
	// ErrDuplicateID signals an internal invariant violation: the
	// monotonic ID allocator handed out an ID already resting in the
	// handle table. Should not occur with monotonic assignment.
	ErrDuplicateID = errors.New("engine: duplicate order id")
	// ErrNotFound is returned by Cancel when the target id is absent
	// from the handle table.
	ErrNotFound = errors.New("engine: order not found")
)

// Levels is the comparator-ordered price-level map backing one side of
// the book. Bids and asks use the same type with opposite comparators
// rather than negating keys (see design notes: "two ordered maps with
// explicit comparators").
type Levels = btree.BTreeG[*Limit]

// OrderBook holds both sides of a single instrument: two price-ordered
// maps of price -> Limit, plus the handle table that gives O(1)
// cancellation by order id.
type OrderBook struct {
	bids *Levels // sorted descending: best bid first
	asks *Levels // sorted ascending: best ask first

	handles map[uint64]*Order
}

// NewOrderBook returns an empty book.
func NewOrderBook() *OrderBook {
	bids := btree.NewBTreeG(func(a, b *Limit) bool {
		return a.Price > b.Price
	})
	asks := btree.NewBTreeG(func(a, b *Limit) bool {
		return a.Price < b.Price
	})
	return &OrderBook{
		bids:    bids,
		asks:    asks,
		handles: make(map[uint64]*Order),
	}
}

func (book *OrderBook) levels(side Side) *Levels {
	if side == Buy {
		return book.bids
	}
	return book.asks
}

// Insert rests a limit order on its own side at order.Price. It is an
// error to insert an order whose id is already in the handle table.
func (book *OrderBook) Insert(o *Order) error {
	if !o.HasPrice() {
		return ErrInvalidOrder
	}
	if _, exists := book.handles[o.ID]; exists {
		return ErrDuplicateID
	}

	levels := book.levels(o.Side)
	price := priceOf(o.Price)

	level, ok := levels.GetMut(&Limit{Price: price})
	if !ok {
		level = newLimit(price)
		levels.Set(level)
	}
	level.append(o)
	book.handles[o.ID] = o
	return nil
}

// Cancel removes a resting order by id in O(log L + 1), L the number
// of distinct price levels on its side. Succeeds at most once per
// order; a second call on the same id returns ErrNotFound.
func (book *OrderBook) Cancel(orderID uint64) (*Order, error) {
	o, ok := book.handles[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(book.handles, orderID)

	level := o.parent
	level.unlink(o)
	if level.empty() {
		book.levels(o.Side).Delete(level)
	}
	return o, nil
}

// removeLevelIfEmpty deletes level from side's map if its queue has
// drained. Called by the matching engine after consuming makers.
func (book *OrderBook) removeLevelIfEmpty(side Side, level *Limit) {
	if level.empty() {
		book.levels(side).Delete(level)
	}
}

// unlinkMaker removes a fully-consumed maker from its level and the
// handle table. The caller (matching engine) has already zeroed its
// Quantity.
func (book *OrderBook) unlinkMaker(o *Order) {
	level := o.parent
	level.unlink(o)
	delete(book.handles, o.ID)
}

// BestBid returns the highest resting bid price, or ok=false if the
// bid side is empty.
func (book *OrderBook) BestBid() (float64, bool) {
	l, ok := book.bids.Min()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// BestAsk returns the lowest resting ask price, or ok=false if the ask
// side is empty.
func (book *OrderBook) BestAsk() (float64, bool) {
	l, ok := book.asks.Min()
	if !ok {
		return 0, false
	}
	return l.Price, true
}

// peekBestLevel returns the best level on side, or nil if side is
// empty. The matching engine consumes the opposite side through this.
func (book *OrderBook) peekBestLevel(side Side) *Limit {
	l, ok := book.levels(side).Min()
	if !ok {
		return nil
	}
	return l
}

// Order looks up a resting order by id without removing it.
func (book *OrderBook) Order(orderID uint64) (*Order, bool) {
	o, ok := book.handles[orderID]
	return o, ok
}

// Depth returns len == order count in the handle table, i.e. the
// total number of resting orders across both sides.
func (book *OrderBook) Depth() int {
	return len(book.handles)
}

// Bids returns resting bid levels best-to-worst.
func (book *OrderBook) Bids() []*Limit {
	var out []*Limit
	book.bids.Scan(func(l *Limit) bool {
		out = append(out, l)
		return true
	})
	return out
}

// Asks returns resting ask levels best-to-worst.
func (book *OrderBook) Asks() []*Limit {
	var out []*Limit
	book.asks.Scan(func(l *Limit) bool {
		out = append(out, l)
		return true
	})
	return out
}
