package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sebilob/internal/circuitbreaker"
	"sebilob/internal/engine"
	"sebilob/internal/session"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 7, 31, hour, minute, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

func forceRegular(g *Gate) {
	regular := session.Regular
	g.Sessions.Force(&regular)
}

func TestValidate_SessionForbidden(t *testing.T) {
	g := New(100, circuitbreaker.Default)
	o := &engine.Order{ID: 1, Side: engine.Buy, Type: engine.StopLoss, Quantity: 1, TriggerPrice: ptr(90)}

	ok, reason := g.Validate(o, at(9, 0)) // pre-market: no STOP_LOSS
	assert.False(t, ok)
	assert.Contains(t, reason, "session_forbidden")
}

func TestValidate_PriceBandRejected(t *testing.T) {
	g := New(100, circuitbreaker.FNO) // band +-10%
	forceRegular(g)

	o := &engine.Order{ID: 1, Side: engine.Buy, Type: engine.Limit, Quantity: 10, Price: ptr(111.0)}
	ok, reason := g.Validate(o, at(10, 0))
	assert.False(t, ok)
	assert.Contains(t, reason, "price_band")
}

func TestValidate_AcceptsAtBandBoundary(t *testing.T) {
	g := New(100, circuitbreaker.FNO)
	forceRegular(g)

	o := &engine.Order{ID: 1, Side: engine.Buy, Type: engine.Limit, Quantity: 10, Price: ptr(110.0)}
	ok, _ := g.Validate(o, at(10, 0))
	assert.True(t, ok)
}

func TestObserve_TriggersHalt(t *testing.T) {
	g := New(100, circuitbreaker.Default)
	forceRegular(g)

	eval := g.Observe(80, at(10, 0)) // 20% move
	assert.True(t, eval.Triggered)
	assert.True(t, g.MarketHalted())

	o := &engine.Order{ID: 2, Side: engine.Buy, Type: engine.Limit, Quantity: 1, Price: ptr(100)}
	ok, reason := g.Validate(o, at(10, 1))
	assert.False(t, ok)
	assert.Contains(t, reason, "halted")
}

func TestValidate_UnhaltsAfterHaltEndTime(t *testing.T) {
	g := New(100, circuitbreaker.Default)
	forceRegular(g)

	eval := g.Observe(91, at(10, 0)) // 9% move: not triggered, sanity check
	require.False(t, eval.Triggered)

	eval = g.Observe(89, at(10, 0)) // 11% move -> 10% tier, before 13:00: 45 min halt
	require.True(t, eval.Triggered)
	require.True(t, g.MarketHalted())

	o := &engine.Order{ID: 3, Side: engine.Buy, Type: engine.Limit, Quantity: 1, Price: ptr(100)}
	ok, _ := g.Validate(o, at(10, 30))
	assert.False(t, ok, "still within halt window")

	ok, _ = g.Validate(o, at(10, 46))
	assert.True(t, ok, "halt window has elapsed")
	assert.False(t, g.MarketHalted())
}
