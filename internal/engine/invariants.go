package engine

import "fmt"

// AssertInvariants walks both sides of the book and the handle table,
// checking the universal invariants from spec §8. It is exposed for
// tests and debug builds; a violation indicates a bug in the engine,
// not bad input, so it returns an error rather than a typed reason.
func (book *OrderBook) AssertInvariants() error {
	seen := make(map[uint64]bool, len(book.handles))

	check := func(side Side, levels []*Limit) error {
		var lastPrice float64
		first := true
		for _, l := range levels {
			if l.empty() {
				return fmt.Errorf("engine: empty level %v left in side map", l.Price)
			}

			var vol uint64
			var count int
			for o := l.head; o != nil; o = o.next {
				vol += o.Quantity
				count++
				if o.parent != l {
					return fmt.Errorf("engine: order %d has wrong parent_level", o.ID)
				}
				if o.Quantity == 0 {
					return fmt.Errorf("engine: resting order %d has zero quantity", o.ID)
				}
				h, ok := book.handles[o.ID]
				if !ok || h != o {
					return fmt.Errorf("engine: order %d resting but absent from handle table", o.ID)
				}
				seen[o.ID] = true
			}
			if vol != l.TotalVolume {
				return fmt.Errorf("engine: level %v total_volume %d != sum %d", l.Price, l.TotalVolume, vol)
			}
			if count != l.OrderCount {
				return fmt.Errorf("engine: level %v order_count %d != len(queue) %d", l.Price, l.OrderCount, count)
			}

			if !first {
				switch side {
				case Buy:
					if l.Price > lastPrice {
						return fmt.Errorf("engine: bid levels out of order")
					}
				case Sell:
					if l.Price < lastPrice {
						return fmt.Errorf("engine: ask levels out of order")
					}
				}
			}
			lastPrice = l.Price
			first = false
		}
		return nil
	}

	if err := check(Buy, book.Bids()); err != nil {
		return err
	}
	if err := check(Sell, book.Asks()); err != nil {
		return err
	}

	for id := range book.handles {
		if !seen[id] {
			return fmt.Errorf("engine: order %d in handle table but not linked into any level", id)
		}
	}

	if bb, ok := book.BestBid(); ok {
		if ba, ok := book.BestAsk(); ok && bb >= ba {
			return fmt.Errorf("engine: crossed book, best_bid %v >= best_ask %v", bb, ba)
		}
	}

	return nil
}
