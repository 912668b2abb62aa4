// Package transport provides the UDP socket the connector reads and writes
// BattlEye datagrams through. It mirrors the shape of the teacher's
// utils/ws.Connection — dial once, read from a channel, send synchronously,
// close idempotently — swapped from a websocket stream to a connectionless
// UDP socket, since RCON has no handshake below the protocol's own Login
// exchange.
package transport

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/battleye-go/rcon/wire"
)

// ErrClosed is returned by Send once the connection has been closed.
var ErrClosed = errors.New("transport: connection is closed")

// Connection abstracts the UDP socket so the connector can be tested against
// a fake. It doesn't have to be safe for concurrent use beyond one reader and
// one writer at a time.
type Connection interface {
	// Dial opens the socket and returns the channel datagrams are delivered
	// on. The channel is closed when the connection is closed or the socket
	// errors out permanently.
	Dial(ctx context.Context, addr string) (<-chan []byte, error)

	// Send writes a single datagram. It does not block waiting for a reply.
	Send(ctx context.Context, b []byte) error

	// Close releases the socket. It is safe to call more than once.
	Close() error
}

// UDPConn is the default Connection, backed by net.UDPConn.
type UDPConn struct {
	mut    sync.Mutex
	conn   *net.UDPConn
	closed chan struct{}
}

var _ Connection = (*UDPConn)(nil)

// NewUDPConn creates an unconnected UDPConn. Call Dial before using it.
func NewUDPConn() *UDPConn {
	return &UDPConn{}
}

// Dial resolves addr (host:port) and connects a UDP socket to it. RCON has
// no server handshake, so "dialing" only binds the local socket; the first
// sign of life from the server is its Login response.
func (c *UDPConn) Dial(ctx context.Context, addr string) (<-chan []byte, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.conn != nil {
		c.closeLocked()
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: resolve address")
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, errors.Wrap(err, "transport: dial")
	}

	c.conn = conn
	c.closed = make(chan struct{})

	datagrams := make(chan []byte, 32)
	go c.readLoop(conn, c.closed, datagrams)

	return datagrams, nil
}

func (c *UDPConn) readLoop(conn *net.UDPConn, closed chan struct{}, out chan<- []byte) {
	defer close(out)

	buf := make([]byte, wire.MaxPacketSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			select {
			case <-closed:
			default:
			}
			return
		}

		cp := make([]byte, n)
		copy(cp, buf[:n])

		select {
		case out <- cp:
		case <-closed:
			return
		}
	}
}

// Send writes b as a single UDP datagram. ctx is only consulted for
// cancellation before the write; net.UDPConn.Write itself doesn't block on
// network conditions the way a stream write can.
func (c *UDPConn) Send(ctx context.Context, b []byte) error {
	c.mut.Lock()
	conn := c.conn
	c.mut.Unlock()

	if conn == nil {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, err := conn.Write(b)
	return err
}

// Close releases the underlying socket. Safe to call more than once or
// before Dial.
func (c *UDPConn) Close() error {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.closeLocked()
}

func (c *UDPConn) closeLocked() error {
	if c.conn == nil {
		return nil
	}

	close(c.closed)
	err := c.conn.Close()
	c.conn = nil
	return err
}
