// Package sequencer provides the single-consumer queue spec §5
// describes for external drivers: "An external driver may serialize
// events from multiple producers via a single-consumer queue." It
// owns no matching logic of its own — it just guarantees that
// concurrent producers' Submit/Cancel calls reach one Exchange one at
// a time, preserving the event-serial contract the core requires.
package sequencer

import (
	"context"

	"github.com/google/uuid"
	tomb "gopkg.in/tomb.v2"

	"sebilob/internal/engine"
	"sebilob/internal/exchange"
)

// request is a queued submit or cancel call; exactly one of submit or
// cancelID is populated, mirroring the two entry points on Exchange.
type request struct {
	submit   *submitRequest
	cancelID uint64
	isCancel bool
	reply    chan response
}

type submitRequest struct {
	agentID      uuid.UUID
	side         engine.Side
	quantity     uint64
	orderType    engine.OrderType
	price        *float64
	triggerPrice *float64
}

type response struct {
	accepted bool
	reason   string
	trades   []engine.Trade
	cancelOK bool
}

// Sequencer runs a single goroutine (managed by tomb.v2, the teacher's
// lifecycle idiom in internal/worker.go) that drains a request channel
// and applies each one to the wrapped Exchange in arrival order.
type Sequencer struct {
	exchange *exchange.Exchange
	requests chan request
	t        tomb.Tomb
}

const requestQueueSize = 256

// New returns a sequencer over ex. Call Run to begin draining the
// queue; call Shutdown to stop it.
func New(ex *exchange.Exchange) *Sequencer {
	return &Sequencer{
		exchange: ex,
		requests: make(chan request, requestQueueSize),
	}
}

// Run starts the consumer goroutine under ctx. It returns immediately;
// use Shutdown to stop the sequencer and wait for it to exit.
func (s *Sequencer) Run(ctx context.Context) {
	s.t.Go(func() error {
		return s.loop(ctx)
	})
}

func (s *Sequencer) loop(ctx context.Context) error {
	for {
		select {
		case <-s.t.Dying():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.requests:
			req.reply <- s.apply(req)
		}
	}
}

func (s *Sequencer) apply(req request) response {
	if req.isCancel {
		return response{cancelOK: s.exchange.Cancel(req.cancelID)}
	}
	accepted, reason, trades := s.exchange.Submit(
		req.submit.agentID,
		req.submit.side,
		req.submit.quantity,
		req.submit.orderType,
		req.submit.price,
		req.submit.triggerPrice,
	)
	return response{accepted: accepted, reason: reason, trades: trades}
}

// Submit enqueues a submit request and blocks until the sequencer has
// applied it, returning the same tuple Exchange.Submit would.
func (s *Sequencer) Submit(agentID uuid.UUID, side engine.Side, quantity uint64, orderType engine.OrderType, price, triggerPrice *float64) (bool, string, []engine.Trade) {
	reply := make(chan response, 1)
	s.requests <- request{
		submit: &submitRequest{
			agentID:      agentID,
			side:         side,
			quantity:     quantity,
			orderType:    orderType,
			price:        price,
			triggerPrice: triggerPrice,
		},
		reply: reply,
	}
	resp := <-reply
	return resp.accepted, resp.reason, resp.trades
}

// Cancel enqueues a cancel request and blocks until applied.
func (s *Sequencer) Cancel(orderID uint64) bool {
	reply := make(chan response, 1)
	s.requests <- request{isCancel: true, cancelID: orderID, reply: reply}
	resp := <-reply
	return resp.cancelOK
}

// Shutdown stops the consumer goroutine and waits for it to exit.
func (s *Sequencer) Shutdown() error {
	s.t.Kill(nil)
	return s.t.Wait()
}
