// Package compliance composes the trading-session manager and the
// circuit-breaker monitor into the single pre-/post-trade gate that
// sits inline on the submission path (spec §4.G).
package compliance

import (
	"errors"
	"fmt"
	"time"

	"sebilob/internal/circuitbreaker"
	"sebilob/internal/engine"
	"sebilob/internal/session"
)

// Error kinds the gate distinguishes, surfaced as the reason string
// on the exchange facade's Submit response (spec §7).
var (
	ErrHalted           = errors.New("halted")
	ErrSessionForbidden = errors.New("session_forbidden")
	ErrPriceBand        = errors.New("price_band")
)

// Gate is the compliance state for one instrument: session rules plus
// the circuit-breaker monitor, and the single mutable flag (market
// halt) that a trade can flip.
type Gate struct {
	Sessions *session.Manager
	Breaker  *circuitbreaker.Monitor

	marketHalted bool
	haltEndTime  time.Time
	haltForDay   bool
}

// New returns a gate for a stock with the given reference price and
// category, using a default (unforced) session manager.
func New(referencePrice float64, category circuitbreaker.StockCategory) *Gate {
	return &Gate{
		Sessions: session.NewManager(),
		Breaker:  circuitbreaker.New(referencePrice, category),
	}
}

// Validate runs the pre-trade checks from spec §4.G, in order: halt
// state (auto-clearing once now has passed haltEndTime), session
// eligibility, then price band for orders that carry a price.
func (g *Gate) Validate(o *engine.Order, now time.Time) (bool, string) {
	if g.marketHalted {
		if !g.haltForDay && !now.Before(g.haltEndTime) {
			g.marketHalted = false
		} else {
			return false, ErrHalted.Error() + ": market halted"
		}
	}

	if !g.Sessions.IsAllowed(o.Type, now) {
		sess := g.Sessions.Current(now)
		return false, fmt.Sprintf("%s: %s orders not allowed in %s session", ErrSessionForbidden, o.Type, sess)
	}

	if o.HasPrice() {
		price := *o.Price
		if !g.Breaker.CheckPriceBand(price) {
			return false, fmt.Sprintf("%s: price %.4f outside band [%.4f, %.4f]", ErrPriceBand, price, g.Breaker.LowerBand, g.Breaker.UpperBand)
		}
	}

	return true, "accepted"
}

// Observe runs the post-trade checks: evaluate the index-level
// breaker against the last traded price and, if triggered with a real
// action, flip market_halted and compute halt_end_time. This is the
// gate's single state mutation (spec §4.G).
func (g *Gate) Observe(lastTradePrice float64, now time.Time) circuitbreaker.Evaluation {
	eval := g.Breaker.EvaluateIndexBreaker(lastTradePrice, now)
	if !eval.Triggered {
		return eval
	}

	switch eval.Action {
	case circuitbreaker.HaltForDay:
		g.marketHalted = true
		g.haltForDay = true
	case circuitbreaker.CloseMarket:
		g.marketHalted = true
		g.haltForDay = true
	default:
		if eval.Minutes > 0 {
			g.marketHalted = true
			g.haltForDay = false
			g.haltEndTime = now.Add(time.Duration(eval.Minutes) * time.Minute)
		}
	}

	return eval
}

// MarketHalted reports the current halt flag without mutating it.
func (g *Gate) MarketHalted() bool {
	return g.marketHalted
}

// HaltEndTime returns the time at which a timed halt lifts. The zero
// value means either no halt, or a halt-for-day/close-market halt with
// no scheduled end (it lifts only at session rollover, outside this
// package's scope).
func (g *Gate) HaltEndTime() time.Time {
	return g.haltEndTime
}
