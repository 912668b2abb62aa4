package connector

// Close tears down the session: it cancels the reader, keep-alive, and
// idle-monitor tasks, joins them, fails all outstanding commands with
// ErrNotConnected, closes the state machine, and closes the socket. On
// return, every background goroutine the Driver started has exited — the
// same join guarantee runReconnect gets via sessionWG before it redials.
// Safe to call more than once.
func (d *Driver) Close() error {
	d.stopOnce.Do(func() {
		close(d.stop)

		d.mu.Lock()
		stop := d.sessionStop
		wg := d.sessionWG
		conn := d.conn
		engine := d.engine
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
		if engine != nil {
			engine.Close()
		}

		d.failAllPending(ErrNotConnected)

		d.connected.Store(false)
		d.loggedIn.Store(false)
		d.running.Store(false)
	})
	return nil
}
