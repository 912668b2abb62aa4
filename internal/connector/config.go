package connector

import (
	"time"

	"golang.org/x/text/encoding"
)

// Config is the set of tunables documented as ConnectorConfig: timers,
// reconnect backoff, and protocol-level knobs the connector threads through
// to the engine it drives.
type Config struct {
	// ConnectionTimeout bounds the initial Connect call: if login hasn't
	// succeeded by this deadline, Connect fails.
	ConnectionTimeout time.Duration
	// LoginTimeout is how long a sent ClientLogin is given a reply before
	// it's considered lost and resent.
	LoginTimeout time.Duration
	// CommandTimeout is the per-command response deadline.
	CommandTimeout time.Duration
	// CommandRetries is how many times a command is retransmitted before
	// CommandTimeout elapses; the retransmit interval is
	// CommandTimeout/(CommandRetries+1).
	CommandRetries int
	// KeepAliveInterval is the send-side silence period after which an
	// empty command is issued to keep the server from considering the
	// client idle.
	KeepAliveInterval time.Duration
	// KeepAliveProbe is the command text sent as the keep-alive. The
	// generic core sends an empty command ("") by default; game-specific
	// connectors may override it with a concrete, cheap command.
	KeepAliveProbe string
	// ServerIdleTimeout is how long the connector tolerates receiving
	// nothing from the server before treating the session as dead and
	// reconnecting. The published protocol's threshold is 45s.
	ServerIdleTimeout time.Duration

	// ReconnectMaxAttempts bounds how many times the connector retries a
	// lost connection; 0 means unlimited.
	ReconnectMaxAttempts int
	// ReconnectInitialDelay is the backoff delay after the first failed
	// reconnect attempt; the first attempt itself follows only the grace
	// period.
	ReconnectInitialDelay time.Duration
	// ReconnectBackoffFactor is the multiplier applied to the delay after
	// each failed attempt.
	ReconnectBackoffFactor float64
	// ReconnectMaxDelay caps the backoff delay.
	ReconnectMaxDelay time.Duration
	// ReconnectGracePeriod is waited once, unconditionally, before the
	// first reconnect attempt.
	ReconnectGracePeriod time.Duration

	// NonceWindow is the size of the message-dedup window (1..255).
	NonceWindow int

	// Encoding is the send-side string encoding applied to outgoing login
	// passwords and command text; nil means plain UTF-8, passed through
	// unchanged. The connector always treats received text as UTF-8
	// regardless of this setting, matching the protocol's asymmetric
	// encoding tolerance.
	Encoding encoding.Encoding
}

// DefaultConfig returns the protocol's documented defaults.
func DefaultConfig() Config {
	return Config{
		ConnectionTimeout:      10 * time.Second,
		LoginTimeout:           3 * time.Second,
		CommandTimeout:         10 * time.Second,
		CommandRetries:         2,
		KeepAliveInterval:      30 * time.Second,
		ServerIdleTimeout:      45 * time.Second,
		ReconnectMaxAttempts:   0,
		ReconnectInitialDelay:  3 * time.Second,
		ReconnectBackoffFactor: 2.0,
		ReconnectMaxDelay:      60 * time.Second,
		ReconnectGracePeriod:   3 * time.Second,
		NonceWindow:            5,
		KeepAliveProbe:         "",
		Encoding:               nil,
	}
}
