package connector

import "github.com/pkg/errors"

var (
	// ErrLoginRefused is returned by Connect when the server rejects the
	// password. Non-retryable.
	ErrLoginRefused = errors.New("connector: login refused")
	// ErrLoginTimeout is returned by Connect when no ServerLogin reply
	// arrives before ConnectionTimeout elapses.
	ErrLoginTimeout = errors.New("connector: login timed out")
	// ErrRCONCommandError is returned by SendCommand when a command's
	// response doesn't arrive before CommandTimeout, retries exhausted.
	ErrRCONCommandError = errors.New("connector: command timed out")
	// ErrNotConnected is returned by SendCommand/Send when the session has
	// been torn down, and delivered to any command awaiting a response
	// when that happens.
	ErrNotConnected = errors.New("connector: not connected")
	// ErrTransportClosed indicates the underlying socket's read loop ended
	// because the socket was closed.
	ErrTransportClosed = errors.New("connector: transport closed")
	// ErrServerSilence indicates the server has been silent for longer
	// than ServerIdleTimeout, triggering a reconnect.
	ErrServerSilence = errors.New("connector: server silence exceeded idle timeout")
)
