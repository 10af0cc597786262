package exchange

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sebilob/internal/circuitbreaker"
	"sebilob/internal/engine"
	"sebilob/internal/session"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func regularAt(hour, minute int) time.Time {
	return time.Date(2026, 7, 31, hour, minute, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

func newTestExchange() *Exchange {
	return New(100, circuitbreaker.FNO,
		WithClock(fixedClock{regularAt(10, 0)}),
		WithSession(session.Regular),
	)
}

var agent = uuid.New()

// S1 — Build book.
func TestSubmit_S1_BuildBook(t *testing.T) {
	ex := newTestExchange()

	ok, _, trades := ex.Submit(agent, engine.Buy, 10, engine.Limit, ptr(99), nil)
	require.True(t, ok)
	assert.Empty(t, trades)

	ok, _, _ = ex.Submit(agent, engine.Buy, 5, engine.Limit, ptr(98), nil)
	require.True(t, ok)

	ok, _, _ = ex.Submit(agent, engine.Sell, 8, engine.Limit, ptr(101), nil)
	require.True(t, ok)

	ok, _, _ = ex.Submit(agent, engine.Sell, 12, engine.Limit, ptr(102), nil)
	require.True(t, ok)

	bb, _ := ex.BestBid()
	ba, _ := ex.BestAsk()
	assert.Equal(t, 99.0, bb)
	assert.Equal(t, 101.0, ba)
	assert.NoError(t, ex.AssertInvariants())
}

// S2 — Market sweep across two ask levels.
func TestSubmit_S2_MarketSweep(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	ok, _, trades := ex.Submit(agent, engine.Buy, 10, engine.Market, nil, nil)
	require.True(t, ok)
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(3), trades[0].MakerOrderID)
	assert.Equal(t, 101.0, trades[0].Price)
	assert.Equal(t, uint64(8), trades[0].Quantity)
	assert.Equal(t, uint64(4), trades[1].MakerOrderID)
	assert.Equal(t, 102.0, trades[1].Price)
	assert.Equal(t, uint64(2), trades[1].Quantity)

	ba, ok := ex.BestAsk()
	require.True(t, ok)
	assert.Equal(t, 102.0, ba)
}

// S3 — Cancel.
func TestSubmit_S3_Cancel(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	ok := ex.Cancel(2)
	assert.True(t, ok)

	bb, _ := ex.BestBid()
	assert.Equal(t, 99.0, bb)

	ok = ex.Cancel(2)
	assert.False(t, ok)
}

// S4 — Price-band rejection.
func TestSubmit_S4_PriceBandRejection(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	bbBefore, _ := ex.BestBid()

	ok, reason, trades := ex.Submit(agent, engine.Buy, 10, engine.Limit, ptr(111.0), nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "price_band")
	assert.Empty(t, trades)

	bbAfter, _ := ex.BestBid()
	assert.Equal(t, bbBefore, bbAfter)
}

// S5 — Partial fill + rest.
func TestSubmit_S5_PartialFillRests(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	_, _, _ = ex.Submit(agent, engine.Buy, 10, engine.Market, nil, nil) // consume 101|8 and 2 of 102, leaving 102|10

	ok, _, trades := ex.Submit(agent, engine.Buy, 15, engine.Limit, ptr(102), nil)
	require.True(t, ok)
	require.Len(t, trades, 1)
	assert.Equal(t, uint64(10), trades[0].Quantity)
	assert.Equal(t, 102.0, trades[0].Price)

	_, askOK := ex.BestAsk()
	assert.False(t, askOK)

	bb, ok := ex.BestBid()
	require.True(t, ok)
	assert.Equal(t, 102.0, bb)
}

// S6 — FOK reject.
func TestSubmit_S6_FOKReject(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	ok, reason, trades := ex.Submit(agent, engine.Buy, 25, engine.FOK, ptr(102), nil)
	assert.False(t, ok)
	assert.Contains(t, reason, "fill-or-kill")
	assert.Empty(t, trades)

	ba, _ := ex.BestAsk()
	assert.Equal(t, 101.0, ba)
}

func TestCancel_SecondCallFails(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	require.True(t, ex.Cancel(1))
	assert.False(t, ex.Cancel(1))
}

func TestSubmit_StopLossElevatesOnTrigger(t *testing.T) {
	ex := newTestExchange()
	seedS1Book(t, ex)

	ok, _, trades := ex.Submit(agent, engine.Sell, 5, engine.StopLoss, nil, ptr(100))
	require.True(t, ok)
	assert.Empty(t, trades)

	// Trade at 99 (hitting the resting bid) brings last price to 99,
	// below the stop's trigger of 100, so it should elevate to MARKET
	// and execute against the remaining bid liquidity.
	ok, _, trades = ex.Submit(agent, engine.Sell, 10, engine.Limit, ptr(99), nil)
	require.True(t, ok)
	require.NotEmpty(t, trades)

	// The elevated stop (MARKET SELL 5) consumed the remaining 98|5 bid.
	_, bidOK := ex.BestBid()
	assert.False(t, bidOK)

	assert.NoError(t, ex.AssertInvariants())
}

func seedS1Book(t *testing.T, ex *Exchange) {
	t.Helper()
	ok, _, _ := ex.Submit(agent, engine.Buy, 10, engine.Limit, ptr(99), nil)
	require.True(t, ok)
	ok, _, _ = ex.Submit(agent, engine.Buy, 5, engine.Limit, ptr(98), nil)
	require.True(t, ok)
	ok, _, _ = ex.Submit(agent, engine.Sell, 8, engine.Limit, ptr(101), nil)
	require.True(t, ok)
	ok, _, _ = ex.Submit(agent, engine.Sell, 12, engine.Limit, ptr(102), nil)
	require.True(t, ok)
}
