package engine

// Match applies taker against the opposite side of the book under
// price-time priority. It returns the trades produced and whether the
// order (or its remainder) is now resting on the book.
//
// Order-type semantics (spec §4.D):
//   - LIMIT:  walks while matchable, rests any residual at taker.Price.
//   - MARKET: sweeps until the opposite side is empty or taker is
//     filled; any unfilled remainder is discarded, never rested.
//   - IOC:    walks like LIMIT, but discards any residual instead of
//     resting it.
//   - FOK:    a pre-check sweep must find enough volume to fill taker
//     entirely, or the whole order is rejected with no trades and no
//     book mutation.
//
// STOP_LOSS orders never reach Match directly — they are held
// out-of-book by the exchange facade until triggered, then resubmitted
// as MARKET or LIMIT (see the exchange package).
func (e *MatchingEngine) Match(taker *Order) ([]Trade, bool, error) {
	if taker.Quantity == 0 {
		return nil, false, ErrInvalidOrder
	}
	switch taker.Type {
	case Limit, IOC:
		if !taker.HasPrice() {
			return nil, false, ErrInvalidOrder
		}
	case Market:
		if taker.HasPrice() {
			return nil, false, ErrInvalidOrder
		}
	case FOK:
		if !taker.HasPrice() {
			return nil, false, ErrInvalidOrder
		}
		if !e.fokFillable(taker) {
			return nil, false, ErrFOKUnfillable
		}
	case StopLoss:
		return nil, false, ErrInvalidOrder
	default:
		return nil, false, ErrInvalidOrder
	}

	oppositeSide := Sell
	if taker.Side == Sell {
		oppositeSide = Buy
	}

	var trades []Trade
	for taker.Quantity > 0 {
		level := e.Book.peekBestLevel(oppositeSide)
		if level == nil || !e.matchable(taker, level.Price) {
			break
		}

		for taker.Quantity > 0 {
			maker := level.head
			if maker == nil {
				break
			}

			qty := min(taker.Quantity, maker.Quantity)
			taker.Quantity -= qty
			maker.Quantity -= qty
			level.TotalVolume -= qty

			trades = append(trades, Trade{
				MakerOrderID: maker.ID,
				TakerOrderID: taker.ID,
				Price:        level.Price,
				Quantity:     qty,
				Timestamp:    taker.Timestamp,
			})

			if maker.Quantity == 0 {
				e.Book.unlinkMaker(maker)
			}
		}

		e.Book.removeLevelIfEmpty(oppositeSide, level)
	}

	resting := false
	switch taker.Type {
	case Limit:
		if taker.Quantity > 0 {
			if err := e.Book.Insert(taker); err != nil {
				return trades, false, err
			}
			resting = true
		}
	case Market, IOC, FOK:
		// Any residual is discarded, not rested.
	}

	return trades, resting, nil
}

// matchable reports whether taker can still trade against a level at
// levelPrice (spec §4.D matchability rules).
func (e *MatchingEngine) matchable(taker *Order, levelPrice float64) bool {
	if taker.Type == Market {
		return true
	}
	if taker.Side == Buy {
		return *taker.Price >= levelPrice
	}
	return *taker.Price <= levelPrice
}

// fokFillable scans the opposite side accumulating volume from best
// to the worst acceptable price until the sum reaches taker.Quantity.
func (e *MatchingEngine) fokFillable(taker *Order) bool {
	oppositeSide := Sell
	if taker.Side == Sell {
		oppositeSide = Buy
	}

	var available uint64
	var levels *Levels
	if oppositeSide == Buy {
		levels = e.Book.bids
	} else {
		levels = e.Book.asks
	}

	done := false
	levels.Scan(func(l *Limit) bool {
		if done {
			return false
		}
		if taker.Side == Buy && l.Price > *taker.Price {
			return false
		}
		if taker.Side == Sell && l.Price < *taker.Price {
			return false
		}
		available += l.TotalVolume
		if available >= taker.Quantity {
			done = true
			return false
		}
		return true
	})

	return available >= taker.Quantity
}
