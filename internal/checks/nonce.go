// Package checks holds small bounded-memory utilities shared by the
// protocol engine. NonceCheck is the one currently needed: a FIFO-bounded
// set over the 1-byte sequence space used to deduplicate server messages.
package checks

import "github.com/pkg/errors"

// ErrInvalidWindow is returned by New when asked for a window size outside
// 1..255.
var ErrInvalidWindow = errors.New("checks: nonce window must be between 1 and 255")

// NonceCheck remembers the most recently seen sequence numbers, evicting the
// oldest in FIFO order once more than window distinct values have been
// recorded. It is not safe for concurrent use; like the rest of the
// protocol engine, it is meant to be driven from a single goroutine at a
// time and left to its caller to serialize.
type NonceCheck struct {
	window int
	seen   map[byte]struct{}
	order  []byte
}

// New creates a NonceCheck that remembers at most window sequence numbers.
func New(window int) (*NonceCheck, error) {
	if window < 1 || window > 255 {
		return nil, ErrInvalidWindow
	}
	return &NonceCheck{
		window: window,
		seen:   make(map[byte]struct{}, window),
		order:  make([]byte, 0, window),
	}, nil
}

// Seen reports whether seq has already been recorded. If it hasn't, seq is
// inserted and the set evicts its oldest entry once the window is exceeded.
func (n *NonceCheck) Seen(seq byte) bool {
	if _, ok := n.seen[seq]; ok {
		return true
	}

	n.seen[seq] = struct{}{}
	n.order = append(n.order, seq)

	if len(n.order) > n.window {
		oldest := n.order[0]
		n.order = n.order[1:]
		delete(n.seen, oldest)
	}

	return false
}

// Reset clears the set, as happens when a session reconnects and the
// sequence space starts fresh.
func (n *NonceCheck) Reset() {
	n.seen = make(map[byte]struct{}, n.window)
	n.order = n.order[:0]
}

// Len returns the number of sequence numbers currently remembered.
func (n *NonceCheck) Len() int {
	return len(n.order)
}
