// Package backoff computes reconnect delays for the connector's reconnect
// supervisor. It keeps the teacher's atomic attempt counter and
// per-attempt-duration shape, but the deterministic formula the
// specification calls for — min(initial * factor^n, max), no jitter — in
// place of the jittered formula this was adapted from, since reconnect
// timing needs to be exactly reproducible in tests.
package backoff

import (
	"math"
	"sync/atomic"
	"time"
)

// Backoff is a time.Duration counter, starting at Initial. After every call
// to Next the attempt count advances, and the returned duration grows by
// Factor each time but never exceeds Max.
type Backoff struct {
	initial, max float64 // seconds
	factor       float64
	attempt      int32
}

// New creates a new backoff counter. factor must be > 1 for the delay to
// actually grow; the specification's default is 2.0.
func New(initial, max time.Duration, factor float64) *Backoff {
	return &Backoff{
		initial: initial.Seconds(),
		max:     max.Seconds(),
		factor:  factor,
	}
}

// Next returns the duration for the current attempt and advances the
// counter. It is safe for concurrent use.
func (b *Backoff) Next() time.Duration {
	return b.forAttempt(atomic.AddInt32(&b.attempt, 1) - 1)
}

// Reset returns the counter to attempt zero, as happens once a reconnect
// succeeds.
func (b *Backoff) Reset() {
	atomic.StoreInt32(&b.attempt, 0)
}

// Attempt returns the number of times Next has been called since
// construction or the last Reset.
func (b *Backoff) Attempt() int {
	return int(atomic.LoadInt32(&b.attempt))
}

// forAttempt returns the duration for a specific attempt; the first attempt
// is 0.
func (b *Backoff) forAttempt(attempt int32) time.Duration {
	if b.initial >= b.max {
		return duration(b.max)
	}

	if attempt < 0 {
		attempt = math.MaxInt32
	}

	dur := b.initial * math.Pow(b.factor, float64(attempt))
	if dur > b.max {
		return duration(b.max)
	}
	return duration(dur)
}

// duration converts a seconds float64 to time.Duration without losing
// accuracy, the way the teacher's original backoff did.
func duration(secs float64) time.Duration {
	whole, frac := math.Modf(secs)
	return (time.Duration(whole) * time.Second) + time.Duration(frac*float64(time.Second))
}
