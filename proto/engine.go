// Package proto implements the BattlEye RCON protocol state machine. It is
// sans-I/O: ClientEngine only ever consumes bytes and produces bytes and
// events. It never touches a socket, never sleeps, and never spawns
// concurrency — all timing and transport belongs to the connector that
// drives it.
package proto

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/battleye-go/rcon/internal/checks"
	"github.com/battleye-go/rcon/wire"
)

// ErrNoAvailableSequence is returned by SendCommand when all 256 sequence
// numbers are already associated with an outstanding command — pathological
// in practice, since it requires 256 simultaneous in-flight requests.
var ErrNoAvailableSequence = errors.New("proto: no available sequence number")

// Logf receives a line for each non-fatal internal condition the engine
// drops rather than surfaces as an error — a multipart fragment whose total
// changes mid-assembly, or a redelivered index with a different payload.
// Fragments arriving out of order are reassembled, not logged. A no-op by
// default; the rcon package wires it to rcon.Logf.
var Logf = func(format string, args ...interface{}) {}

type fragmentSet struct {
	total  uint8
	slots  [][]byte
	filled int
}

// ClientEngine is the client side of the protocol: NO_AUTH -> LOGGING_IN ->
// LOGGED_IN -> CLOSED. It is not safe for concurrent use; the connector
// serializes all access, entering it only from its reader goroutine or from
// a public operation, never both at once.
type ClientEngine struct {
	state State

	nextSeq     byte
	outstanding map[byte]struct{}
	fragments   map[byte]*fragmentSet

	nonce *checks.NonceCheck

	outbox [][]byte
	events []Event
}

// NewClientEngine creates a ClientEngine in state NO_AUTH. nonceWindow is
// the size of the message-dedup window (1..255; the protocol default is 5).
func NewClientEngine(nonceWindow int) (*ClientEngine, error) {
	nonce, err := checks.New(nonceWindow)
	if err != nil {
		return nil, err
	}
	return &ClientEngine{
		state:       NoAuth,
		outstanding: make(map[byte]struct{}),
		fragments:   make(map[byte]*fragmentSet),
		nonce:       nonce,
	}, nil
}

// State reports the engine's current ClientState.
func (e *ClientEngine) State() State { return e.state }

// SendLogin emits a ClientLogin frame and transitions NO_AUTH -> LOGGING_IN.
// Valid only in NO_AUTH.
func (e *ClientEngine) SendLogin(password string) error {
	if e.state != NoAuth {
		return &InvalidStateError{State: e.state, Input: "send_login"}
	}

	b, err := wire.Encode(wire.NewClientLogin(password))
	if err != nil {
		return err
	}

	e.outbox = append(e.outbox, b)
	e.state = LoggingIn
	return nil
}

// SendCommand allocates a sequence, emits a ClientCommand frame, and records
// the sequence as outstanding until the response completes or CancelCommand
// is called. Valid only in LOGGED_IN.
func (e *ClientEngine) SendCommand(text string) (byte, error) {
	if e.state != LoggedIn {
		return 0, &InvalidStateError{State: e.state, Input: "send_command"}
	}

	seq, err := e.allocateSequence()
	if err != nil {
		return 0, err
	}

	b, err := wire.Encode(wire.NewClientCommand(seq, text))
	if err != nil {
		return 0, err
	}

	e.outstanding[seq] = struct{}{}
	e.outbox = append(e.outbox, b)
	return seq, nil
}

// CancelCommand frees seq for reallocation without emitting anything. The
// connector calls this once a PendingCommand is cancelled or times out, so
// that the sequence is "eligible for allocation" again per the sequence
// freedom property.
func (e *ClientEngine) CancelCommand(seq byte) {
	delete(e.outstanding, seq)
	delete(e.fragments, seq)
}

func (e *ClientEngine) allocateSequence() (byte, error) {
	for i := 0; i < 256; i++ {
		candidate := e.nextSeq
		e.nextSeq++
		if _, busy := e.outstanding[candidate]; !busy {
			return candidate, nil
		}
	}
	return 0, ErrNoAvailableSequence
}

// ReceiveDatagram decodes raw as a server->client frame and advances the
// state machine, appending zero or more events to the receive queue.
//
// Malformed frames (bad magic, bad length, checksum mismatch, or an
// ill-formed multipart header) are dropped silently, matching the protocol's
// "transient, retry locally" recovery policy — the caller observes no error
// and no state change. A structurally valid frame whose kind is illegal for
// the current state returns InvalidStateError without mutating state.
func (e *ClientEngine) ReceiveDatagram(raw []byte) error {
	if e.state == Closed {
		return ErrClosed
	}

	pkt, err := wire.Decode(raw, wire.ServerToClient)
	if err != nil {
		return nil
	}

	switch e.state {
	case NoAuth:
		return &InvalidStateError{State: e.state, Input: pkt.Kind.String()}

	case LoggingIn:
		if pkt.Kind != wire.KindLogin {
			return &InvalidStateError{State: e.state, Input: pkt.Kind.String()}
		}
		if pkt.Accepted {
			e.state = LoggedIn
			e.events = append(e.events, Event{Kind: EventLoginSuccess})
		} else {
			e.state = Closed
			e.events = append(e.events, Event{Kind: EventLoginRefused})
		}
		return nil

	case LoggedIn:
		switch pkt.Kind {
		case wire.KindCommand:
			return e.receiveCommandResponse(pkt)
		case wire.KindMessage:
			return e.receiveServerMessage(pkt)
		default:
			return &InvalidStateError{State: e.state, Input: pkt.Kind.String()}
		}

	default:
		return &InvalidStateError{State: e.state, Input: pkt.Kind.String()}
	}
}

func (e *ClientEngine) receiveCommandResponse(pkt wire.Packet) error {
	if !pkt.Multipart {
		e.completeCommand(pkt.Sequence, pkt.Text())
		return nil
	}

	fs, ok := e.fragments[pkt.Sequence]
	if !ok {
		fs = &fragmentSet{total: pkt.Total, slots: make([][]byte, pkt.Total)}
		e.fragments[pkt.Sequence] = fs
	} else if fs.total != pkt.Total {
		Logf("proto: fragment total changed mid-assembly for seq %d (%d -> %d), dropping", pkt.Sequence, fs.total, pkt.Total)
		return nil
	}

	if int(pkt.Index) >= len(fs.slots) {
		return nil
	}

	if existing := fs.slots[pkt.Index]; existing != nil {
		if !bytes.Equal(existing, pkt.Payload) {
			Logf("proto: fragment index %d for seq %d redelivered with a different payload, dropping", pkt.Index, pkt.Sequence)
			return nil
		}
		return nil
	}

	fs.slots[pkt.Index] = pkt.Payload
	fs.filled++

	if fs.filled == int(fs.total) {
		var assembled []byte
		for _, part := range fs.slots {
			assembled = append(assembled, part...)
		}
		delete(e.fragments, pkt.Sequence)
		e.completeCommand(pkt.Sequence, string(assembled))
	}
	return nil
}

func (e *ClientEngine) completeCommand(seq byte, text string) {
	delete(e.outstanding, seq)
	e.events = append(e.events, Event{Kind: EventCommandResponse, Sequence: seq, Text: text})
}

func (e *ClientEngine) receiveServerMessage(pkt wire.Packet) error {
	if !e.nonce.Seen(pkt.Sequence) {
		e.events = append(e.events, Event{Kind: EventServerMessage, Sequence: pkt.Sequence, Text: pkt.Text()})
	}

	// Acknowledgements are always sent, even for duplicates — they are
	// idempotent and the only way the server stops retransmitting.
	ack, err := wire.Encode(wire.NewClientMessageAck(pkt.Sequence))
	if err != nil {
		return err
	}
	e.outbox = append(e.outbox, ack)
	return nil
}

// EventsToSend drains and returns the outgoing datagrams accumulated since
// the last call.
func (e *ClientEngine) EventsToSend() [][]byte {
	out := e.outbox
	e.outbox = nil
	return out
}

// EventsReceived drains and returns the events accumulated since the last
// call.
func (e *ClientEngine) EventsReceived() []Event {
	out := e.events
	e.events = nil
	return out
}

// Close transitions the engine to CLOSED. Idempotent.
func (e *ClientEngine) Close() {
	e.state = Closed
}

// Reset returns the engine to its initial NO_AUTH state, as happens when the
// connector reconnects: outstanding commands, buffered fragments, and the
// message-dedup window are all cleared, but the nonce window size is
// retained.
func (e *ClientEngine) Reset() {
	e.state = NoAuth
	e.nextSeq = 0
	e.outstanding = make(map[byte]struct{})
	e.fragments = make(map[byte]*fragmentSet)
	e.outbox = nil
	e.events = nil
	e.nonce.Reset()
}
