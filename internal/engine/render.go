package engine

import (
	"fmt"
	"strings"
)

// Render produces the non-binding textual book rendering from spec §6:
// asks top-down, best-worst inverted (so the best ask sits just above
// the separator), then a separator, then bids top-down best-to-worst.
// Each line is "SIDE: price | volume". Suitable as a golden string in
// tests; not a wire format.
func (book *OrderBook) Render() string {
	var b strings.Builder

	asks := book.Asks()
	for i := len(asks) - 1; i >= 0; i-- {
		l := asks[i]
		fmt.Fprintf(&b, "ASK: %.2f | %d\n", l.Price, l.TotalVolume)
	}

	b.WriteString(strings.Repeat("-", 30) + "\n")

	for _, l := range book.Bids() {
		fmt.Fprintf(&b, "BID: %.2f | %d\n", l.Price, l.TotalVolume)
	}

	return strings.TrimRight(b.String(), "\n")
}
