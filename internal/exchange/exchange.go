// Package exchange implements the facade that ties the compliance
// gate to the matching engine: it allocates order ids and timestamps,
// validates, matches, observes, and exposes the external submit/cancel
// surface (spec §4.H, §6).
package exchange

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sebilob/internal/circuitbreaker"
	"sebilob/internal/compliance"
	"sebilob/internal/engine"
	"sebilob/internal/session"
)

// Clock supplies wall/logical time to the facade. The core takes time
// as an input (spec §1); production code wraps time.Now, tests inject
// a fixed or steppable clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Option configures an Exchange at construction time.
type Option func(*Exchange)

// WithClock overrides the default system clock — the test hook spec
// §4.E requires so sessions can be forced deterministically.
func WithClock(c Clock) Option {
	return func(e *Exchange) { e.clock = c }
}

// WithSession forces the session manager to a fixed session,
// regardless of the clock, for tests that need any session on demand.
func WithSession(s session.Session) Option {
	return func(e *Exchange) { e.gate.Sessions.Force(&s) }
}

// WithLogger attaches a zerolog.Logger; the default is zerolog.Nop().
func WithLogger(l zerolog.Logger) Option {
	return func(e *Exchange) {
		e.logger = l
		e.engine.Logger = l
	}
}

// WithOrderPool swaps in a pre-warmed OrderPool (e.g. to pre-allocate
// a large simulation's working set up front).
func WithOrderPool(p *engine.OrderPool) Option {
	return func(e *Exchange) { e.pool = p }
}

// Exchange is the single-instrument facade: id/timestamp allocation,
// the compliance gate, the matching engine, and the out-of-book
// stop-loss watch list.
type Exchange struct {
	engine *engine.MatchingEngine
	gate   *compliance.Gate
	pool   *engine.OrderPool
	clock  Clock
	logger zerolog.Logger

	nextOrderID uint64
	stops       []*engine.Order // out-of-book stop orders, arrival order
}

// New builds an Exchange for a single instrument with the given
// reference price and stock category (spec §6:
// Exchange::new(reference_price, stock_category)).
func New(referencePrice float64, category circuitbreaker.StockCategory, opts ...Option) *Exchange {
	e := &Exchange{
		engine: engine.New(),
		gate:   compliance.New(referencePrice, category),
		pool:   engine.NewOrderPool(),
		clock:  systemClock{},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Exchange) allocateOrderID() uint64 {
	e.nextOrderID++
	return e.nextOrderID
}

// Submit is the primary entry point: allocate id+timestamp, validate,
// match, observe, and report (spec §4.H, §6).
func (e *Exchange) Submit(agentID uuid.UUID, side engine.Side, quantity uint64, orderType engine.OrderType, price, triggerPrice *float64) (bool, string, []engine.Trade) {
	now := e.clock.Now()

	if quantity == 0 || (needsPrice(orderType) && price == nil) || (orderType == engine.StopLoss && triggerPrice == nil) {
		e.logger.Debug().Msg("invalid_order: rejected before id allocation")
		return false, "invalid_order: quantity must be positive and price/trigger required for this order type", nil
	}
	if price != nil && (!isFinite(*price) || *price < 0) {
		return false, "invalid_order: negative or non-finite price", nil
	}
	if triggerPrice != nil && (!isFinite(*triggerPrice) || *triggerPrice < 0) {
		return false, "invalid_order: negative or non-finite trigger price", nil
	}

	id := e.allocateOrderID()
	order := e.pool.Get(id, agentID, side, orderType, quantity, price, triggerPrice, now)

	ok, reason := e.gate.Validate(order, now)
	if !ok {
		e.logger.Debug().Uint64("order_id", id).Str("reason", reason).Msg("order rejected")
		e.pool.Release(order)
		return false, reason, nil
	}

	if orderType == engine.StopLoss {
		e.stops = append(e.stops, order)
		e.logger.Debug().Uint64("order_id", id).Msg("stop order armed, held out of book")
		return true, "accepted", nil
	}

	trades, resting, err := e.engine.Match(order)
	if err != nil {
		e.logger.Debug().Err(err).Uint64("order_id", id).Msg("order rejected by matching engine")
		e.pool.Release(order)
		return false, err.Error(), nil
	}

	for _, t := range trades {
		e.logger.Info().
			Uint64("maker", t.MakerOrderID).
			Uint64("taker", t.TakerOrderID).
			Float64("price", t.Price).
			Uint64("qty", t.Quantity).
			Msg("trade")
	}

	if !resting {
		// Fully filled, or a Market/IOC/FOK residual discarded without
		// resting: the order is no longer reachable from the book.
		e.pool.Release(order)
	}

	var lastPrice float64
	if len(trades) > 0 {
		lastPrice = trades[len(trades)-1].Price
		eval := e.gate.Observe(lastPrice, now)
		if eval.Triggered && (eval.Action == circuitbreaker.HaltForDay || eval.Action == circuitbreaker.CloseMarket || eval.Minutes > 0) {
			e.logger.Warn().
				Float64("tier", eval.Tier).
				Str("action", string(eval.Action)).
				Int("minutes", eval.Minutes).
				Msg("circuit breaker triggered, market halted")
		}

		// Triggering must happen after post-trade updates (§4.D).
		e.elevateStops(lastPrice, now)
	}

	return true, "accepted", trades
}

// Cancel delegates to the book; returns whether a resting order was
// removed (spec §4.H, §5: succeeds at most once per order).
func (e *Exchange) Cancel(orderID uint64) bool {
	o, err := e.engine.Book.Cancel(orderID)
	if err != nil {
		return false
	}
	e.pool.Release(o)
	return true
}

// BestBid returns the book's best bid price, if any.
func (e *Exchange) BestBid() (float64, bool) { return e.engine.Book.BestBid() }

// BestAsk returns the book's best ask price, if any.
func (e *Exchange) BestAsk() (float64, bool) { return e.engine.Book.BestAsk() }

// Render returns the textual book rendering (spec §6, non-binding).
func (e *Exchange) Render() string { return e.engine.Book.Render() }

// AssertInvariants exposes the book's invariant check for tests.
func (e *Exchange) AssertInvariants() error { return e.engine.Book.AssertInvariants() }

// MarketHalted reports the compliance gate's current halt flag.
func (e *Exchange) MarketHalted() bool { return e.gate.MarketHalted() }

func needsPrice(t engine.OrderType) bool {
	switch t {
	case engine.Limit, engine.IOC, engine.FOK:
		return true
	default:
		return false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// elevateStops promotes armed stop orders whose trigger has been
// reached by lastPrice, converting each to Market (no price) or Limit
// (price set) and resubmitting it through Match in arrival order
// (spec §4.D STOP_LOSS row, §9 design notes option (b)).
func (e *Exchange) elevateStops(lastPrice float64, now time.Time) {
	if len(e.stops) == 0 {
		return
	}

	var remaining []*engine.Order
	for _, stop := range e.stops {
		if !triggered(stop, lastPrice) {
			remaining = append(remaining, stop)
			continue
		}

		elevatedType := engine.Market
		if stop.HasPrice() {
			elevatedType = engine.Limit
		}
		stop.Type = elevatedType
		stop.Timestamp = now

		trades, _, err := e.engine.Match(stop)
		if err != nil {
			e.logger.Error().Err(err).Uint64("order_id", stop.ID).Msg("stop elevation failed to match")
			continue
		}
		e.logger.Info().Uint64("order_id", stop.ID).Str("elevated_to", elevatedType.String()).Msg("stop order triggered")
		for _, t := range trades {
			e.logger.Info().
				Uint64("maker", t.MakerOrderID).
				Uint64("taker", t.TakerOrderID).
				Float64("price", t.Price).
				Uint64("qty", t.Quantity).
				Msg("trade")
		}

		if !stop.Resting() {
			e.pool.Release(stop)
		}

		if len(trades) > 0 {
			cascadePrice := trades[len(trades)-1].Price
			e.gate.Observe(cascadePrice, now)
			lastPrice = cascadePrice
		}
	}
	e.stops = remaining
}

func triggered(stop *engine.Order, lastPrice float64) bool {
	trigger := priceOf(stop.TriggerPrice)
	if stop.Side == engine.Buy {
		return lastPrice >= trigger
	}
	return lastPrice <= trigger
}

func priceOf(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
