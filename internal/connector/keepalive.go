package connector

// keepAliveLoop issues cfg.KeepAliveProbe whenever KeepAliveInterval of
// send-side silence has elapsed — empty by default for the generic core;
// game-specific connectors may set KeepAliveProbe to a concrete command.
func (d *Driver) keepAliveLoop(stop <-chan struct{}) {
	ticker := d.clk.NewTicker(d.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			silence := d.clk.Now().UnixNano() - d.lastSend.Load()
			if silence >= int64(d.cfg.KeepAliveInterval) {
				d.sendKeepAlive(stop)
			}
		case <-stop:
			return
		case <-d.stop:
			return
		}
	}
}

func (d *Driver) sendKeepAlive(stop <-chan struct{}) {
	probe, err := encodeOutbound(d.cfg.Encoding, d.cfg.KeepAliveProbe)
	if err != nil {
		Debug("connector: keep-alive encode failed:", err)
		return
	}

	pc, err := d.sendTracked(probe)
	if err != nil {
		Debug("connector: keep-alive send failed:", err)
		return
	}

	timer := d.clk.NewTimer(d.cfg.CommandTimeout)
	go func() {
		defer timer.Stop()
		select {
		case <-pc.done:
		case <-timer.Chan():
			d.mu.Lock()
			d.engine.CancelCommand(pc.seq)
			delete(d.pending, pc.seq)
			d.mu.Unlock()
		case <-stop:
		case <-d.stop:
		}
	}()
}

// idleMonitorLoop watches for server-side silence exceeding
// ServerIdleTimeout and triggers a reconnect; the published protocol
// considers a client idle (and the connection dead) past this threshold.
func (d *Driver) idleMonitorLoop(stop <-chan struct{}) {
	ticker := d.clk.NewTicker(d.cfg.ServerIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			silence := d.clk.Now().UnixNano() - d.lastRecv.Load()
			if silence >= int64(d.cfg.ServerIdleTimeout) {
				d.triggerReconnect(ErrServerSilence)
			}
		case <-stop:
			return
		case <-d.stop:
			return
		}
	}
}
