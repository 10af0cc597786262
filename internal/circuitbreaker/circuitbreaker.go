// Package circuitbreaker implements SEBI-style price-band and
// index-level circuit-breaker checks, per spec §4.F.
package circuitbreaker

import "time"

// StockCategory determines the daily price-band percentage for a
// single stock.
type StockCategory string

const (
	Category1 StockCategory = "category_1"
	Category2 StockCategory = "category_2"
	Category3 StockCategory = "category_3"
	FNO       StockCategory = "fno"
	Default   StockCategory = "default"
)

var categoryBand = map[StockCategory]float64{
	Category1: 0.02,
	Category2: 0.05,
	Category3: 0.10,
	FNO:       0.10,
	Default:   0.20,
}

// Action names the response an index-level breaker trigger demands.
type Action string

const (
	NoAction    Action = ""
	CloseMarket Action = "close_market"
	HaltForDay  Action = "halt_for_day"
)

// Evaluation is the result of checking the index-level breaker.
type Evaluation struct {
	Triggered bool
	Tier      float64 // 0.10, 0.15 or 0.20
	Action    Action
	Minutes   int // timed-halt duration in minutes (Action is NoAction); 0 for CloseMarket/HaltForDay and for the 10% tier after 14:30
}

var timeBefore13 = 13 * time.Hour
var time1430 = 14*time.Hour + 30*time.Minute

// durations maps tier -> time-of-day bucket -> halt minutes. A value
// of -1 marks the bucket that instead resolves to CloseMarket; 0 is a
// genuine no-op (10% after 14:30).
var durations = map[float64][3]int{
	0.10: {45, 15, 0},
	0.15: {105, 45, -1},
}

// Monitor tracks one stock's reference price and its category-derived
// price band. It holds no halt state; evaluations are returned to the
// caller.
type Monitor struct {
	ReferencePrice float64
	StockCategory  StockCategory

	UpperBand float64
	LowerBand float64
}

// New derives the upper/lower price band from referencePrice and
// category.
func New(referencePrice float64, category StockCategory) *Monitor {
	band, ok := categoryBand[category]
	if !ok {
		band = categoryBand[Default]
	}
	return &Monitor{
		ReferencePrice: referencePrice,
		StockCategory:  category,
		UpperBand:      referencePrice * (1 + band),
		LowerBand:      referencePrice * (1 - band),
	}
}

// CheckPriceBand reports whether price sits within [LowerBand, UpperBand].
func (m *Monitor) CheckPriceBand(price float64) bool {
	return price >= m.LowerBand && price <= m.UpperBand
}

// EvaluateIndexBreaker picks the highest triggered tier from
// |current-reference|/reference and resolves its action from the
// time-of-day bucket (spec §4.F table).
func (m *Monitor) EvaluateIndexBreaker(currentPrice float64, now time.Time) Evaluation {
	change := absf(currentPrice-m.ReferencePrice) / m.ReferencePrice

	var tier float64
	switch {
	case change >= 0.20:
		tier = 0.20
	case change >= 0.15:
		tier = 0.15
	case change >= 0.10:
		tier = 0.10
	default:
		return Evaluation{Triggered: false}
	}

	if tier == 0.20 {
		return Evaluation{Triggered: true, Tier: tier, Action: HaltForDay}
	}

	bucket := bucketIndex(now)
	minutes := durations[tier][bucket]
	if minutes == -1 {
		return Evaluation{Triggered: true, Tier: tier, Action: CloseMarket}
	}
	if minutes == 0 {
		return Evaluation{Triggered: true, Tier: tier, Action: NoAction, Minutes: 0}
	}
	return Evaluation{Triggered: true, Tier: tier, Action: NoAction, Minutes: minutes}
}

func bucketIndex(now time.Time) int {
	tod := time.Duration(now.Hour())*time.Hour + time.Duration(now.Minute())*time.Minute + time.Duration(now.Second())*time.Second
	switch {
	case tod < timeBefore13:
		return 0
	case tod < time1430:
		return 1
	default:
		return 2
	}
}

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
