package proto

import "github.com/pkg/errors"

// InvalidStateError is returned when a caller invokes an operation that is
// illegal for the engine's current state. Per the protocol design these are
// programmer errors, not recoverable runtime conditions — the engine's state
// is left unchanged.
type InvalidStateError struct {
	State State
	Input string
}

func (e *InvalidStateError) Error() string {
	return "proto: " + e.Input + " is invalid in state " + e.State.String()
}

// ErrClosed is returned by operations attempted after Close.
var ErrClosed = errors.New("proto: engine is closed")
