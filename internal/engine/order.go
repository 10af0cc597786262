package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Order is the unit of identity flowing through the book. It is mutated
// by the matching engine (Quantity), the book (the intrusive
// prev/next/parent links) and, when a stop order is elevated, the
// exchange facade (Type, Timestamp) — never copied once it has been submitted,
// since the queue links are part of its identity.
//
// An Order is in exactly one of three states: pending-match (in flight
// through the engine, parent == nil), resting (parent != nil, present
// in the book's handle table) or terminal (fully filled or cancelled;
// links cleared, absent from the handle table).
type Order struct {
	ID            uint64
	AgentID       uuid.UUID
	Side          Side
	Type          OrderType
	Quantity      uint64 // remaining; reaches 0 at full fill
	TotalQuantity uint64 // original requested quantity, for conservation checks
	Price         *float64
	TriggerPrice  *float64
	Timestamp     time.Time

	prev, next *Order
	parent     *Limit

	pooled bool // guards against double-release from an OrderPool
}

// Resting reports whether the order is currently linked into a price
// level. parent is non-nil iff the order is linked into that level's
// queue (spec invariant).
func (o *Order) Resting() bool {
	return o.parent != nil
}

// HasPrice reports whether the order carries an explicit limit price
// (false only for bare Market orders).
func (o *Order) HasPrice() bool {
	return o.Price != nil
}

func priceOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// ErrDoubleRelease is returned by OrderPool.Release when an already
// pooled order is released a second time.
var ErrDoubleRelease = errors.New("engine: order released twice")

// OrderPool recycles terminal Order records to cut allocator pressure
// in long-running simulations, per the core's optional object-pool
// design note. It is behaviour-neutral: callers cannot distinguish a
// pooled order from a freshly allocated one.
type OrderPool struct {
	mu   sync.Mutex
	free []*Order
}

// NewOrderPool returns an empty pool. Orders are allocated on demand
// and recycled as they complete.
func NewOrderPool() *OrderPool {
	return &OrderPool{}
}

// Get returns an Order initialised with the given fields, reusing a
// released record when one is available.
func (p *OrderPool) Get(id uint64, agentID uuid.UUID, side Side, typ OrderType, quantity uint64, price, triggerPrice *float64, ts time.Time) *Order {
	p.mu.Lock()
	var o *Order
	if n := len(p.free); n > 0 {
		o = p.free[n-1]
		p.free = p.free[:n-1]
	}
	p.mu.Unlock()

	if o == nil {
		o = &Order{}
	}

	*o = Order{
		ID:            id,
		AgentID:       agentID,
		Side:          side,
		Type:          typ,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Price:         price,
		TriggerPrice:  triggerPrice,
		Timestamp:     ts,
	}
	return o
}

// Release resets every mutable field and returns the order to the
// free list. The caller must only release an order on confirmed full
// fill or successful cancel — never while it is still reachable from
// the book.
func (p *OrderPool) Release(o *Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if o.pooled {
		return ErrDoubleRelease
	}

	o.Side = 0
	o.Type = 0
	o.Timestamp = time.Time{}
	o.Quantity = 0
	o.TotalQuantity = 0
	o.Price = nil
	o.TriggerPrice = nil
	o.prev = nil
	o.next = nil
	o.parent = nil
	o.pooled = true

	p.free = append(p.free, o)
	return nil
}
