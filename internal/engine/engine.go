// Package engine implements the price-time-priority limit order book
// and matching algorithm: the order record, the price level, the
// order book, and the matching engine that sweeps one against the
// other. Session rules, price bands and circuit breakers live above
// this package, in compliance and its collaborators.
package engine

import (
	"errors"

	"github.com/rs/zerolog"
)

// ErrInvalidOrder covers the gate-level invalid-order cases the
// engine also guards defensively against: non-positive quantity, a
// LIMIT/IOC/FOK order missing its price, or inserting a priceless
// order.
var ErrInvalidOrder = errors.New("engine: invalid order")

// ErrFOKUnfillable is returned by Match when a Fill-Or-Kill order
// cannot be filled in its entirety by the opposite side's pre-check
// sweep. No trades are emitted and the book is left unchanged.
var ErrFOKUnfillable = errors.New("engine: fill-or-kill order cannot be filled in full")

// MatchingEngine applies an incoming order against the opposite side
// of a single OrderBook under price-time priority, emitting Trades
// and resting any eligible remainder.
type MatchingEngine struct {
	Book   *OrderBook
	Logger zerolog.Logger
}

// New returns a matching engine over a fresh, empty order book.
func New() *MatchingEngine {
	return &MatchingEngine{
		Book:   NewOrderBook(),
		Logger: zerolog.Nop(),
	}
}
