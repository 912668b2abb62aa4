package proto

import (
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/battleye-go/rcon/wire"
)

func newLoggedIn(t *testing.T) *ClientEngine {
	t.Helper()
	e, err := NewClientEngine(5)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SendLogin("test"); err != nil {
		t.Fatal(err)
	}
	e.EventsToSend()

	b, err := wire.Encode(wire.NewServerLogin(true))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.ReceiveDatagram(b); err != nil {
		t.Fatal(err)
	}
	events := e.EventsReceived()
	if len(events) != 1 || events[0].Kind != EventLoginSuccess {
		t.Fatalf("expected one LoginSuccess event, got %v", events)
	}
	return e
}

// TestLoginAccepted covers scenario S1.
func TestLoginAccepted(t *testing.T) {
	e := newLoggedIn(t)
	if e.State() != LoggedIn {
		t.Fatalf("state = %v, want LOGGED_IN", e.State())
	}
}

// TestLoginRefused covers scenario S2.
func TestLoginRefused(t *testing.T) {
	e, err := NewClientEngine(5)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.SendLogin("wrong"); err != nil {
		t.Fatal(err)
	}
	e.EventsToSend()

	b, err := wire.Encode(wire.NewServerLogin(false))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.ReceiveDatagram(b); err != nil {
		t.Fatal(err)
	}

	events := e.EventsReceived()
	if len(events) != 1 || events[0].Kind != EventLoginRefused {
		t.Fatalf("expected one LoginRefused event, got %v", events)
	}
	if e.State() != Closed {
		t.Fatalf("state = %v, want CLOSED", e.State())
	}
}

// TestSimpleCommand covers scenario S3.
func TestSimpleCommand(t *testing.T) {
	e := newLoggedIn(t)

	seq, err := e.SendCommand("players")
	if err != nil {
		t.Fatal(err)
	}
	if seq != 0 {
		t.Fatalf("first allocated sequence = %d, want 0", seq)
	}
	e.EventsToSend()

	b, err := wire.Encode(wire.NewServerCommandResponse(seq, "lobby empty"))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.ReceiveDatagram(b); err != nil {
		t.Fatal(err)
	}

	events := e.EventsReceived()
	if len(events) != 1 || events[0].Kind != EventCommandResponse {
		t.Fatalf("expected one CommandResponse event, got %v", events)
	}
	if events[0].Sequence != seq || events[0].Text != "lobby empty" {
		t.Fatalf("got %+v", events[0])
	}
}

// TestFragmentedCommand covers scenario S4: three fragments with indices
// 2, 0, 1 arriving in that (non-index) order reassemble in canonical order.
func TestFragmentedCommand(t *testing.T) {
	e := newLoggedIn(t)

	seq, err := e.SendCommand("status")
	if err != nil {
		t.Fatal(err)
	}
	e.EventsToSend()

	frags := []struct {
		index uint8
		text  string
	}{
		{2, "CC"},
		{0, "AA"},
		{1, "BB"},
	}
	for _, f := range frags {
		b, err := wire.Encode(wire.NewServerCommandFragment(seq, 3, f.index, f.text))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.ReceiveDatagram(b); err != nil {
			t.Fatal(err)
		}
	}

	events := e.EventsReceived()
	if len(events) != 1 || events[0].Kind != EventCommandResponse {
		t.Fatalf("expected one CommandResponse event, got %v", events)
	}
	if events[0].Text != "AABBCC" {
		t.Fatalf("assembled text = %q, want AABBCC", events[0].Text)
	}
}

// TestFragmentPermutation covers property 3 at the state-machine level:
// five randomly chosen fragment arrival orders each reassemble identically.
func TestFragmentPermutation(t *testing.T) {
	original := "the quick brown fox jumps over"
	const fragSize = 5

	var fragments []string
	for i := 0; i < len(original); i += fragSize {
		end := i + fragSize
		if end > len(original) {
			end = len(original)
		}
		fragments = append(fragments, original[i:end])
	}
	total := uint8(len(fragments))

	for trial := 0; trial < 5; trial++ {
		e := newLoggedIn(t)
		seq, err := e.SendCommand("status")
		if err != nil {
			t.Fatal(err)
		}
		e.EventsToSend()

		order := rand.Perm(len(fragments))
		for _, idx := range order {
			b, err := wire.Encode(wire.NewServerCommandFragment(seq, total, uint8(idx), fragments[idx]))
			if err != nil {
				t.Fatal(err)
			}
			if err := e.ReceiveDatagram(b); err != nil {
				t.Fatal(err)
			}
		}

		events := e.EventsReceived()
		if len(events) != 1 || events[0].Text != original {
			t.Fatalf("trial %d: order %v, want reassembled %q\nfragment state: %s",
				trial, order, original, spew.Sdump(e.fragments))
		}
	}
}

// TestDuplicateMessageDedup covers property 4 and scenario S5.
func TestDuplicateMessageDedup(t *testing.T) {
	e := newLoggedIn(t)

	b, err := wire.Encode(wire.NewServerMessage(7, "hello"))
	if err != nil {
		t.Fatal(err)
	}

	if err := e.ReceiveDatagram(b); err != nil {
		t.Fatal(err)
	}
	if err := e.ReceiveDatagram(b); err != nil {
		t.Fatal(err)
	}

	events := e.EventsReceived()
	var messageEvents int
	for _, ev := range events {
		if ev.Kind == EventServerMessage {
			messageEvents++
		}
	}
	if messageEvents != 1 {
		t.Fatalf("got %d ServerMessage events, want 1", messageEvents)
	}

	acks := e.EventsToSend()
	if len(acks) != 2 {
		t.Fatalf("got %d acks, want 2", len(acks))
	}
	for _, raw := range acks {
		pkt, err := wire.Decode(raw, wire.ClientToServer)
		if err != nil {
			t.Fatal(err)
		}
		if pkt.Kind != wire.KindMessage || pkt.Sequence != 7 {
			t.Fatalf("unexpected ack %+v", pkt)
		}
	}
}

// TestSequenceFreedom covers property 5: once a command completes, its
// sequence becomes eligible for allocation again.
func TestSequenceFreedom(t *testing.T) {
	e := newLoggedIn(t)

	var lastSeq byte
	for i := 0; i < 3; i++ {
		seq, err := e.SendCommand("cmd")
		if err != nil {
			t.Fatal(err)
		}
		lastSeq = seq
		e.EventsToSend()

		b, err := wire.Encode(wire.NewServerCommandResponse(seq, "ok"))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.ReceiveDatagram(b); err != nil {
			t.Fatal(err)
		}
		e.EventsReceived()
	}
	if lastSeq != 2 {
		t.Fatalf("sequence should keep advancing when not reused prematurely, got %d", lastSeq)
	}

	// Cancel frees the sequence immediately, even without a response.
	seq, err := e.SendCommand("cmd")
	if err != nil {
		t.Fatal(err)
	}
	e.EventsToSend()
	e.CancelCommand(seq)

	if _, busy := e.outstanding[seq]; busy {
		t.Fatalf("sequence %d should be free after CancelCommand", seq)
	}
}

// TestStateLegality covers property 6: an input illegal for the current
// state returns InvalidStateError and does not mutate state.
func TestStateLegality(t *testing.T) {
	e, err := NewClientEngine(5)
	if err != nil {
		t.Fatal(err)
	}

	// A ServerCommand arriving before any login attempt is illegal in
	// NO_AUTH.
	b, err := wire.Encode(wire.NewServerCommandResponse(0, "x"))
	if err != nil {
		t.Fatal(err)
	}

	err = e.ReceiveDatagram(b)
	if _, ok := err.(*InvalidStateError); !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if e.State() != NoAuth {
		t.Fatalf("state mutated to %v after illegal input", e.State())
	}

	if _, err := e.SendCommand("x"); err == nil {
		t.Fatal("expected error sending command before login")
	}
}

// TestMalformedDatagramDropped verifies malformed bytes are dropped
// silently rather than surfaced as an error or state change.
func TestMalformedDatagramDropped(t *testing.T) {
	e := newLoggedIn(t)

	if err := e.ReceiveDatagram([]byte{1, 2, 3}); err != nil {
		t.Fatalf("malformed datagram should be dropped silently, got %v", err)
	}
	if e.State() != LoggedIn {
		t.Fatalf("state mutated by malformed datagram: %v", e.State())
	}
	if len(e.EventsReceived()) != 0 {
		t.Fatal("malformed datagram should not produce events")
	}
}

func TestReceiveAfterCloseFails(t *testing.T) {
	e := newLoggedIn(t)
	e.Close()

	if err := e.ReceiveDatagram([]byte("whatever")); err != ErrClosed {
		t.Fatalf("got %v, want ErrClosed", err)
	}
}

func TestResetReturnsToNoAuth(t *testing.T) {
	e := newLoggedIn(t)
	seq, err := e.SendCommand("cmd")
	if err != nil {
		t.Fatal(err)
	}
	e.EventsToSend()

	e.Reset()
	if e.State() != NoAuth {
		t.Fatalf("state after Reset = %v, want NO_AUTH", e.State())
	}
	if len(e.outstanding) != 0 {
		t.Fatal("Reset should clear outstanding commands")
	}
	_ = seq
}
