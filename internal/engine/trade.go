package engine

import "time"

// Trade is the stable execution record emitted by a single Match
// call. Quantity is the traded amount at Price; Timestamp is the
// taker's arrival time (all fills within one submit share it).
type Trade struct {
	MakerOrderID uint64
	TakerOrderID uint64
	Price        float64
	Quantity     uint64
	Timestamp    time.Time
}
