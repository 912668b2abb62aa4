package connector

import (
	"context"
	"time"

	"github.com/battleye-go/rcon/wire"
)

// sendTracked allocates a sequence via the engine, writes the ClientCommand
// frame, and registers a pendingCommand so completePending can resolve it
// once the response (or reassembled multipart response) arrives.
func (d *Driver) sendTracked(text string) (*pendingCommand, error) {
	d.mu.Lock()
	seq, err := d.engine.SendCommand(text)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	outbox := d.engine.EventsToSend()
	conn := d.conn
	pc := newPendingCommand(seq, text, d.clk.Now())
	d.pending[seq] = pc
	d.mu.Unlock()

	for _, b := range outbox {
		d.writeDatagram(context.Background(), conn, b)
	}
	return pc, nil
}

// SendCommand submits text and suspends until the assembled response
// arrives, the command times out after retries, or ctx is cancelled.
func (d *Driver) SendCommand(ctx context.Context, text string) (string, error) {
	if !d.loggedIn.Load() {
		return "", ErrNotConnected
	}

	text, err := encodeOutbound(d.cfg.Encoding, text)
	if err != nil {
		return "", err
	}

	pc, err := d.sendTracked(text)
	if err != nil {
		return "", err
	}

	retries := d.cfg.CommandRetries
	if retries < 0 {
		retries = 0
	}
	retryInterval := d.cfg.CommandTimeout / time.Duration(retries+1)

	retryTimer := d.clk.NewTimer(retryInterval)
	overallTimer := d.clk.NewTimer(d.cfg.CommandTimeout)
	defer retryTimer.Stop()
	defer overallTimer.Stop()

	for {
		select {
		case <-pc.done:
			d.mu.Lock()
			delete(d.pending, pc.seq)
			d.mu.Unlock()
			return pc.result, pc.err

		case <-retryTimer.Chan():
			d.mu.Lock()
			conn := d.conn
			d.mu.Unlock()
			b, encodeErr := wire.Encode(wire.NewClientCommand(pc.seq, text))
			if encodeErr == nil {
				d.writeDatagram(ctx, conn, b)
			}
			pc.retryCount++
			retryTimer.Reset(retryInterval)

		case <-overallTimer.Chan():
			d.mu.Lock()
			d.engine.CancelCommand(pc.seq)
			delete(d.pending, pc.seq)
			d.mu.Unlock()
			return "", ErrRCONCommandError

		case <-ctx.Done():
			d.mu.Lock()
			d.engine.CancelCommand(pc.seq)
			delete(d.pending, pc.seq)
			d.mu.Unlock()
			return "", ctx.Err()

		case <-d.stop:
			d.mu.Lock()
			d.engine.CancelCommand(pc.seq)
			delete(d.pending, pc.seq)
			d.mu.Unlock()
			return "", ErrNotConnected
		}
	}
}

// Send submits text and returns as soon as it's written, without creating a
// pendingCommand or waiting for a response. A reply, if the server sends
// one, still completes the sequence on the engine via the ordinary read
// path (dispatchProtoEvent/completePending find no pendingCommand for it
// and simply publish the CommandResponse event) — so no retry, timeout, or
// map entry is ever registered for it.
func (d *Driver) Send(text string) error {
	if !d.loggedIn.Load() {
		return ErrNotConnected
	}

	text, err := encodeOutbound(d.cfg.Encoding, text)
	if err != nil {
		return err
	}

	d.mu.Lock()
	_, err = d.engine.SendCommand(text)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	outbox := d.engine.EventsToSend()
	conn := d.conn
	d.mu.Unlock()

	for _, b := range outbox {
		d.writeDatagram(context.Background(), conn, b)
	}
	return nil
}

// IsRunning reports whether Connect has succeeded and Close hasn't been
// called yet.
func (d *Driver) IsRunning() bool { return d.running.Load() }

// IsConnected reports whether the underlying socket is currently up.
func (d *Driver) IsConnected() bool { return d.connected.Load() }

// IsLoggedIn reports whether the protocol state machine is in LOGGED_IN.
func (d *Driver) IsLoggedIn() bool { return d.loggedIn.Load() }
