package connector

import (
	"context"

	"github.com/battleye-go/rcon/internal/transport"
	"github.com/battleye-go/rcon/proto"
	"github.com/battleye-go/rcon/wire"
)

// handleDatagram feeds raw into the engine under the driver's mutex, then
// flushes whatever outgoing bytes and events that produced. It is called
// both from the login handshake and from the steady-state reader, so it
// must not assume the background loops are running yet.
func (d *Driver) handleDatagram(raw []byte) {
	d.lastRecv.Store(d.clk.Now().UnixNano())

	d.mu.Lock()
	err := d.engine.ReceiveDatagram(raw)
	outbox := d.engine.EventsToSend()
	events := d.engine.EventsReceived()
	conn := d.conn
	d.mu.Unlock()

	if err != nil {
		if _, ok := err.(*proto.InvalidStateError); ok {
			Debug("connector: invalid state:", err)
		}
		return
	}

	for _, b := range outbox {
		d.writeDatagram(context.Background(), conn, b)
	}

	if _, decErr := wire.Decode(raw, wire.ServerToClient); decErr == nil {
		d.publish(Event{Kind: EventRawPacket, Raw: raw})
	}

	for _, ev := range events {
		d.dispatchProtoEvent(ev)
	}
}

func (d *Driver) dispatchProtoEvent(ev proto.Event) {
	switch ev.Kind {
	case proto.EventLoginSuccess:
		d.publish(Event{Kind: EventLogin})
	case proto.EventLoginRefused:
		d.publish(Event{Kind: EventLoginFailure, LoginFailureKind: LoginFailureRefused})
	case proto.EventCommandResponse:
		d.completePending(ev.Sequence, ev.Text, nil)
		d.publish(Event{Kind: EventCommandResponse, Sequence: ev.Sequence, Text: ev.Text})
	case proto.EventServerMessage:
		d.publish(Event{Kind: EventServerMessage, Sequence: ev.Sequence, Text: ev.Text})
	}
}

func (d *Driver) completePending(seq byte, result string, err error) {
	d.mu.Lock()
	pc, ok := d.pending[seq]
	if ok {
		delete(d.pending, seq)
	}
	d.mu.Unlock()

	if ok {
		pc.complete(result, err)
	}
}

// writeDatagram rate-limits and writes a single outgoing datagram, updating
// the send-side silence clock the keep-alive loop watches.
func (d *Driver) writeDatagram(ctx context.Context, conn transport.Connection, b []byte) error {
	if err := d.sendLimiter.Wait(ctx); err != nil {
		return err
	}
	d.lastSend.Store(d.clk.Now().UnixNano())
	return conn.Send(ctx, b)
}

func (d *Driver) publish(ev Event) {
	d.consumersMu.Lock()
	consumers := make([]func(Event), len(d.consumers))
	copy(consumers, d.consumers)
	d.consumersMu.Unlock()

	for _, c := range consumers {
		c(ev)
	}
}

// OnEvent registers a consumer for the connector's event stream. Consumers
// are invoked synchronously from whichever internal goroutine produced the
// event; a slow consumer will slow down the reader.
func (d *Driver) OnEvent(consumer func(Event)) {
	d.consumersMu.Lock()
	d.consumers = append(d.consumers, consumer)
	d.consumersMu.Unlock()
}
