// Package session maps time-of-day to a trading session label and the
// set of order types that session allows, per spec §4.E.
package session

import (
	"time"

	"sebilob/internal/engine"
)

// Session is a pure label for a time-of-day window.
type Session string

const (
	PreMarket  Session = "pre_market"
	Regular    Session = "regular"
	PostMarket Session = "post_market"
	Closed     Session = "closed"
)

var (
	preMarketStart  = clockTime(9, 0)
	preMarketEnd    = clockTime(9, 15)
	regularStart    = clockTime(9, 15)
	regularEnd      = clockTime(15, 30)
	postMarketStart = clockTime(15, 40)
	postMarketEnd   = clockTime(16, 0)
)

func clockTime(hour, minute int) time.Duration {
	return time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
}

func timeOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}

// allowedOrderTypes enumerates which order types each session permits.
// FOK is allowed in regular session: spec §4.E marks it
// implementer-optional and explicitly permits adding it.
var allowedOrderTypes = map[Session]map[engine.OrderType]bool{
	PreMarket: {
		engine.Limit:  true,
		engine.Market: true,
	},
	Regular: {
		engine.Limit:    true,
		engine.Market:   true,
		engine.StopLoss: true,
		engine.IOC:      true,
		engine.FOK:      true,
	},
	PostMarket: {
		engine.Limit: true,
	},
	Closed: {},
}

// Manager determines the current session from a clock, with a test
// hook to force a fixed session regardless of wall time — simulations
// routinely run off-hours (spec §4.E).
type Manager struct {
	forced   *Session
	forcedOK bool
}

// NewManager returns a manager that classifies sessions from time-of-day.
func NewManager() *Manager {
	return &Manager{}
}

// Force pins the manager to a fixed session, ignoring the clock
// argument to Current/Allowed/IsAllowed. Pass nil to release it.
func (m *Manager) Force(s *Session) {
	if s == nil {
		m.forced = nil
		m.forcedOK = false
		return
	}
	forced := *s
	m.forced = &forced
	m.forcedOK = true
}

// Current classifies now into a Session, or returns the forced
// session if one has been set via Force.
func (m *Manager) Current(now time.Time) Session {
	if m.forcedOK {
		return *m.forced
	}
	return Classify(now)
}

// Classify is the pure time-of-day -> Session function.
func Classify(now time.Time) Session {
	tod := timeOfDay(now)
	switch {
	case tod >= preMarketStart && tod < preMarketEnd:
		return PreMarket
	case tod >= regularStart && tod < regularEnd:
		return Regular
	case tod >= postMarketStart && tod < postMarketEnd:
		return PostMarket
	default:
		return Closed
	}
}

// Allowed returns the set of order types permitted in the session
// current at now.
func (m *Manager) Allowed(now time.Time) map[engine.OrderType]bool {
	return allowedOrderTypes[m.Current(now)]
}

// IsAllowed reports whether orderType may be submitted at now.
func (m *Manager) IsAllowed(orderType engine.OrderType, now time.Time) bool {
	return allowedOrderTypes[m.Current(now)][orderType]
}
