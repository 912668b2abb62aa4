package transport

import (
	"time"

	"golang.org/x/time/rate"
)

// SendBurst bounds how many datagrams the connector may send back to back
// before the send limiter starts throttling. A higher burst drains slower.
var SendBurst = 5

// NewSendLimiter returns a rate limiter for outgoing command and keep-alive
// datagrams, capped well under what a BattlEye server's own flood protection
// would reject.
func NewSendLimiter() *rate.Limiter {
	const perSecond = 10
	return rate.NewLimiter(rate.Limit(perSecond), SendBurst)
}

// NewDialLimiter returns a rate limiter for (re)dial attempts, so a
// reconnect-backoff bug can't turn into a connect flood.
func NewDialLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Second), 1)
}
