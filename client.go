// Package rcon implements a BattlEye RCON client: a sans-I/O protocol state
// machine (see proto), a UDP connector that drives it (see
// internal/connector), and this package, which is the surface most callers
// should use.
//
// Client
//
// Client holds connection configuration and dials sessions:
//
//	c := rcon.New(rcon.DefaultConfig())
//	sess, err := c.Connect(ctx, "127.0.0.1", 2302, "password")
//
// Session
//
// Session is the scoped handle returned by Connect. Callers send commands,
// subscribe to the event stream, and close the session when done.
package rcon

import (
	"context"
	"fmt"

	"github.com/battleye-go/rcon/internal/clock"
	"github.com/battleye-go/rcon/internal/connector"
)

// Config tunes the connector's timers, reconnect backoff, and protocol
// knobs. It's a thin alias over the connector's own config, the way
// gateway.DefaultGatewayOpts is the struct a caller actually fills in.
type Config = connector.Config

// DefaultConfig returns the protocol's documented defaults.
func DefaultConfig() Config {
	return connector.DefaultConfig()
}

// Client constructs Sessions against a given configuration. It holds no
// connection state itself — every call to Connect starts an independent
// Session.
type Client struct {
	cfg Config
	clk clock.Clock
}

// New creates a Client. Passing no config uses DefaultConfig().
func New(cfg ...Config) *Client {
	c := DefaultConfig()
	if len(cfg) > 0 {
		c = cfg[0]
	}
	return &Client{cfg: c, clk: clock.Real()}
}

// Connect dials host:port and runs the login handshake with password,
// returning a Session once LOGGED_IN, or an error (LoginRefused,
// LoginTimeout, or a dial failure) if it doesn't complete within
// Config.ConnectionTimeout.
func (c *Client) Connect(ctx context.Context, host string, port int, password string) (*Session, error) {
	d := connector.New(c.cfg, c.clk)
	addr := fmt.Sprintf("%s:%d", host, port)

	if err := d.Connect(ctx, addr, password); err != nil {
		return nil, translateError(err)
	}
	return &Session{driver: d}, nil
}
