package testfixtures

import (
	"sync"
	"time"

	"github.com/msomdec/recruit-dashboard/internal/service"
)

// ManualTicker fires only when Tick is called.
type ManualTicker struct {
	Interval time.Duration

	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *ManualTicker) C() <-chan time.Time { return t.c }

func (t *ManualTicker) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *ManualTicker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Tick delivers one tick, blocking until the consumer receives it or the
// timeout elapses. It reports whether the tick was received.
func (t *ManualTicker) Tick(timeout time.Duration) bool {
	select {
	case t.c <- time.Time{}:
		return true
	case <-time.After(timeout):
		return false
	}
}

// TickerFactory creates ManualTickers and hands them to the test in
// creation order.
type TickerFactory struct {
	created chan *ManualTicker
}

// NewTickerFactory returns an empty factory.
func NewTickerFactory() *TickerFactory {
	return &TickerFactory{created: make(chan *ManualTicker, 16)}
}

// New satisfies the simulator's NewTicker hook.
func (f *TickerFactory) New(d time.Duration) service.Ticker {
	t := &ManualTicker{Interval: d, c: make(chan time.Time)}
	f.created <- t
	return t
}

// Next waits for the next ticker to be created.
func (f *TickerFactory) Next(timeout time.Duration) (*ManualTicker, bool) {
	select {
	case t := <-f.created:
		return t, true
	case <-time.After(timeout):
		return nil, false
	}
}
