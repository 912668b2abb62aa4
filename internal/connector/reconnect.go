package connector

import (
	"context"

	"github.com/battleye-go/rcon/internal/backoff"
)

func newReconnectBackoff(cfg Config) *backoff.Backoff {
	return backoff.New(cfg.ReconnectInitialDelay, cfg.ReconnectMaxDelay, cfg.ReconnectBackoffFactor)
}

// triggerReconnect starts the reconnect supervisor if it isn't already
// running. On an established session, a closed transport (readLoop) and
// server silence (idleMonitorLoop) route through here.
func (d *Driver) triggerReconnect(cause error) {
	if !d.reconnecting.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer d.reconnecting.Store(false)
		d.runReconnect(cause)
	}()
}

func (d *Driver) runReconnect(cause error) {
	d.connected.Store(false)
	d.loggedIn.Store(false)

	d.mu.Lock()
	stop := d.sessionStop
	wg := d.sessionWG
	conn := d.conn
	d.mu.Unlock()

	if stop != nil {
		select {
		case <-stop:
		default:
			close(stop)
		}
	}
	if conn != nil {
		conn.Close()
	}
	if wg != nil {
		wg.Wait()
	}

	d.failAllPending(ErrNotConnected)
	d.publish(Event{Kind: EventDisconnected, Cause: cause})

	grace := d.clk.NewTimer(d.cfg.ReconnectGracePeriod)
	select {
	case <-grace.Chan():
	case <-d.stop:
		grace.Stop()
		return
	}

	backoffDelay := newReconnectBackoff(d.cfg)
	attempt := 0
	for {
		select {
		case <-d.stop:
			return
		default:
		}

		if d.cfg.ReconnectMaxAttempts > 0 && attempt >= d.cfg.ReconnectMaxAttempts {
			d.running.Store(false)
			return
		}

		err := d.dialAndLogin(context.Background(), true)
		if err == nil {
			d.startBackgroundLoops()
			return
		}
		if err == ErrLoginRefused {
			d.running.Store(false)
			return
		}

		attempt++
		delay := backoffDelay.Next()
		timer := d.clk.NewTimer(delay)
		select {
		case <-timer.Chan():
		case <-d.stop:
			timer.Stop()
			return
		}
	}
}

func (d *Driver) failAllPending(err error) {
	d.mu.Lock()
	pending := d.pending
	d.pending = make(map[byte]*pendingCommand)
	d.mu.Unlock()

	for _, pc := range pending {
		pc.complete("", err)
	}
}
