package connector

import "time"

// pendingCommand tracks one in-flight command from submission to
// completion, timeout, or cancellation. Its sequence is freed on the
// engine the moment it stops being pending.
type pendingCommand struct {
	seq  byte
	text string

	sentAt     time.Time
	retryCount int

	done   chan struct{}
	result string
	err    error
}

func newPendingCommand(seq byte, text string, sentAt time.Time) *pendingCommand {
	return &pendingCommand{
		seq:    seq,
		text:   text,
		sentAt: sentAt,
		done:   make(chan struct{}),
	}
}

// complete resolves the command exactly once.
func (pc *pendingCommand) complete(result string, err error) {
	select {
	case <-pc.done:
		return // already completed
	default:
	}
	pc.result = result
	pc.err = err
	close(pc.done)
}
