package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// FromClockwork adapts a clockwork.Clock — real or clockwork.NewFakeClock()
// — to this package's Clock interface, so connector tests can advance a
// fake clock instead of sleeping through keep-alive intervals, command
// timeouts, and reconnect backoff delays.
func FromClockwork(c clockwork.Clock) Clock {
	return clockworkClock{c}
}

type clockworkClock struct {
	inner clockwork.Clock
}

func (c clockworkClock) Now() time.Time { return c.inner.Now() }

func (c clockworkClock) NewTimer(d time.Duration) Timer {
	return c.inner.NewTimer(d)
}

func (c clockworkClock) NewTicker(d time.Duration) Ticker {
	return c.inner.NewTicker(d)
}
