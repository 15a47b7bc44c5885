package importer

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// Scheduler runs tick every interval until the returned cancel is called.
// Ticks of one schedule never overlap, and cancel must not block, since the
// watcher calls it from inside a tick.
type Scheduler interface {
	Every(interval time.Duration, tick func()) (cancel func())
}

// ClockScheduler drives each schedule from its own goroutine and ticker.
type ClockScheduler struct {
	clock clock.Clock
}

func NewClockScheduler(c clock.Clock) *ClockScheduler {
	if c == nil {
		c = clock.New()
	}
	return &ClockScheduler{clock: c}
}

func (s *ClockScheduler) Every(interval time.Duration, tick func()) func() {
	ticker := s.clock.Ticker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				// A tick that raced with cancel must not run.
				select {
				case <-done:
					return
				default:
				}
				tick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
