// Package connector drives a proto.ClientEngine against a real UDP
// endpoint: it pumps datagrams in and out, schedules the keep-alive,
// command-timeout, and reconnect-backoff timers the engine itself never
// touches, and republishes the engine's events as a consumer-facing stream.
package connector

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/battleye-go/rcon/internal/clock"
	"github.com/battleye-go/rcon/internal/transport"
	"github.com/battleye-go/rcon/proto"
)

// Debug is called with extra diagnostic detail; overridable the way the
// teacher's WSDebug is, and a no-op by default.
var Debug = func(v ...interface{}) {}

// dialFunc constructs the transport.Connection a Driver dials through.
// Overridden in tests to substitute a fake socket.
type dialFunc func() transport.Connection

// Driver is the connector: the sole owner of the proto.ClientEngine, the
// UDP socket, and the pending-command table. All state machine access is
// serialized through mu, matching the "single mutex guarding the state
// machine" requirement for multi-threaded runtimes.
type Driver struct {
	cfg     Config
	clk     clock.Clock
	newConn dialFunc

	id xid.ID

	addr     string
	password string

	mu        sync.Mutex
	engine    *proto.ClientEngine
	conn      transport.Connection
	datagrams <-chan []byte
	pending   map[byte]*pendingCommand

	sendLimiter *rate.Limiter
	dialLimiter *rate.Limiter

	consumersMu sync.Mutex
	consumers   []func(Event)

	lastSend atomic.Int64
	lastRecv atomic.Int64

	running   atomic.Bool
	connected atomic.Bool
	loggedIn  atomic.Bool

	reconnecting atomic.Bool

	// sessionStop/sessionWG bound the reader, keep-alive, and idle-monitor
	// goroutines for one dial/login cycle. A reconnect closes sessionStop,
	// joins sessionWG, and only then dials again — otherwise a successful
	// reconnect would leave the previous cycle's loops running alongside
	// the new ones.
	sessionStop chan struct{}
	sessionWG   *sync.WaitGroup

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Driver. clk is almost always clock.Real(); tests substitute
// a fake clock to drive timers deterministically.
func New(cfg Config, clk clock.Clock) *Driver {
	return &Driver{
		cfg:         cfg,
		clk:         clk,
		newConn:     func() transport.Connection { return transport.NewUDPConn() },
		id:          xid.New(),
		pending:     make(map[byte]*pendingCommand),
		sendLimiter: transport.NewSendLimiter(),
		dialLimiter: transport.NewDialLimiter(),
		stop:        make(chan struct{}),
	}
}

// SetDialer overrides how the Driver constructs its transport.Connection.
// Exposed for tests; production callers use the default UDP dialer.
func (d *Driver) SetDialer(fn func() transport.Connection) {
	d.newConn = fn
}

// ID returns the per-session correlation id, useful for log lines when
// multiple Drivers are running in the same process.
func (d *Driver) ID() xid.ID { return d.id }

// Connect binds to addr, runs the login handshake, and — on success —
// starts the background reader, keep-alive, and idle-monitor tasks.
func (d *Driver) Connect(ctx context.Context, addr, password string) error {
	encodedPassword, err := encodeOutbound(d.cfg.Encoding, password)
	if err != nil {
		return err
	}

	d.addr = addr
	d.password = encodedPassword

	engine, err := proto.NewClientEngine(d.cfg.NonceWindow)
	if err != nil {
		return err
	}
	d.engine = engine

	dialCtx, cancel := context.WithTimeout(ctx, d.cfg.ConnectionTimeout)
	defer cancel()

	if err := d.dialAndLogin(dialCtx, false); err != nil {
		return err
	}

	d.running.Store(true)
	d.startBackgroundLoops()
	return nil
}

// dialAndLogin opens the socket and runs the login handshake to
// completion: success, refusal, or the context deadline. resetEngine is
// true for reconnect attempts, where the engine must return to NO_AUTH
// first.
func (d *Driver) dialAndLogin(ctx context.Context, resetEngine bool) error {
	if err := d.dialLimiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "connector: dial rate limiter")
	}

	conn := d.newConn()
	datagrams, err := conn.Dial(ctx, d.addr)
	if err != nil {
		return errors.Wrap(err, "connector: dial")
	}

	d.mu.Lock()
	if resetEngine {
		d.engine.Reset()
	}
	d.conn = conn
	d.datagrams = datagrams
	d.mu.Unlock()

	for {
		d.mu.Lock()
		sendErr := d.engine.SendLogin(d.password)
		outbox := d.engine.EventsToSend()
		d.mu.Unlock()
		if sendErr != nil {
			conn.Close()
			return sendErr
		}
		for _, b := range outbox {
			d.writeDatagram(context.Background(), conn, b)
		}

		timer := d.clk.NewTimer(d.cfg.LoginTimeout)
		outcome, retry := d.awaitLogin(ctx, datagrams, timer)
		if !retry {
			if outcome != nil {
				conn.Close()
			}
			return outcome
		}
		// login_timeout elapsed without a reply: loop around and resend,
		// as long as the outer deadline hasn't passed.
		select {
		case <-ctx.Done():
			conn.Close()
			return ErrLoginTimeout
		default:
		}
		// The unanswered login left the engine in LOGGING_IN; return it to
		// NO_AUTH so SendLogin accepts the resend.
		d.mu.Lock()
		d.engine.Reset()
		d.mu.Unlock()
	}
}

// awaitLogin waits for a ServerLogin reply, a stray datagram (processed
// and then waited on again), the login timer, or the outer context. It
// returns (nil, false) on success, (err, false) on a terminal failure, or
// (nil, true) when the caller should resend and retry.
func (d *Driver) awaitLogin(ctx context.Context, datagrams <-chan []byte, timer clock.Timer) (error, bool) {
	defer timer.Stop()

	for {
		select {
		case raw, ok := <-datagrams:
			if !ok {
				return ErrTransportClosed, false
			}
			d.handleDatagram(raw)

			d.mu.Lock()
			state := d.engine.State()
			d.mu.Unlock()

			switch state {
			case proto.LoggedIn:
				return nil, false
			case proto.Closed:
				return ErrLoginRefused, false
			}
		case <-timer.Chan():
			return nil, true
		case <-ctx.Done():
			return ErrLoginTimeout, false
		}
	}
}

func (d *Driver) startBackgroundLoops() {
	d.connected.Store(true)
	d.loggedIn.Store(true)
	now := d.clk.Now().UnixNano()
	d.lastRecv.Store(now)
	d.lastSend.Store(now)

	stop := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(3)

	d.mu.Lock()
	d.sessionStop = stop
	d.sessionWG = wg
	datagrams := d.datagrams
	d.mu.Unlock()

	go func() { defer wg.Done(); d.readLoop(stop, datagrams) }()
	go func() { defer wg.Done(); d.keepAliveLoop(stop) }()
	go func() { defer wg.Done(); d.idleMonitorLoop(stop) }()
}

func (d *Driver) readLoop(stop <-chan struct{}, datagrams <-chan []byte) {
	for {
		select {
		case raw, ok := <-datagrams:
			if !ok {
				d.triggerReconnect(ErrTransportClosed)
				return
			}
			d.handleDatagram(raw)
		case <-stop:
			return
		case <-d.stop:
			return
		}
	}
}
