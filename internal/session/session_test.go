package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sebilob/internal/engine"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 7, 31, hour, minute, 0, 0, time.UTC)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want Session
	}{
		{"pre-market open", at(9, 0), PreMarket},
		{"pre-market boundary", at(9, 14), PreMarket},
		{"regular open", at(9, 15), Regular},
		{"regular mid", at(12, 0), Regular},
		{"regular boundary", at(15, 29), Regular},
		{"between regular and post", at(15, 35), Closed},
		{"post-market open", at(15, 40), PostMarket},
		{"post-market boundary", at(15, 59), PostMarket},
		{"closed after hours", at(16, 0), Closed},
		{"closed before open", at(8, 0), Closed},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.t))
		})
	}
}

func TestManager_AllowedOrderTypes(t *testing.T) {
	m := NewManager()

	assert.True(t, m.IsAllowed(engine.Limit, at(9, 0)))
	assert.False(t, m.IsAllowed(engine.StopLoss, at(9, 0)))

	assert.True(t, m.IsAllowed(engine.StopLoss, at(10, 0)))
	assert.True(t, m.IsAllowed(engine.IOC, at(10, 0)))

	assert.True(t, m.IsAllowed(engine.Limit, at(15, 45)))
	assert.False(t, m.IsAllowed(engine.Market, at(15, 45)))

	assert.False(t, m.IsAllowed(engine.Limit, at(20, 0)))
}

func TestManager_Force(t *testing.T) {
	m := NewManager()
	regular := Regular
	m.Force(&regular)

	// Even at a clearly closed wall-clock time, the forced session wins.
	assert.Equal(t, Regular, m.Current(at(22, 0)))
	assert.True(t, m.IsAllowed(engine.StopLoss, at(22, 0)))

	m.Force(nil)
	assert.Equal(t, Closed, m.Current(at(22, 0)))
}
