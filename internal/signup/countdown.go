package signup

import (
	"sync"
	"time"
)

// Ticker delivers countdown ticks. It mirrors time.Ticker so tests can drive
// the countdown by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	ticker *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *timeTicker) Stop() {
	t.ticker.Stop()
}

func NewTimeTicker(d time.Duration) Ticker {
	return &timeTicker{ticker: time.NewTicker(d)}
}

// countdown is one run of the resend timer. A run is stopped exactly once.
// Its goroutine may still take a tick racing with stop; the controller drops
// it. exited is closed when the goroutine returns.
type countdown struct {
	ticker Ticker
	done   chan struct{}
	exited chan struct{}
	once   sync.Once
}

func newCountdown(ticker Ticker) *countdown {
	return &countdown{
		ticker: ticker,
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (cd *countdown) stop() {
	cd.once.Do(func() {
		cd.ticker.Stop()
		close(cd.done)
	})
}
