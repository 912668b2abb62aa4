// Package rcontest provides a scripted UDP BattlEye server for exercising a
// real client against real sockets, grounded on the reference project's
// mock test server: a net.ListenUDP loop that decodes requests with the
// protocol's own symmetric ServerEngine and lets the test script the
// replies, including out-of-order and duplicate fragment delivery.
package rcontest

import (
	"net"
	"sync"

	"github.com/battleye-go/rcon/proto"
)

// CommandHandler answers a client command with the response text to send
// back as a single-part ServerCommand.
type CommandHandler func(seq byte, text string) string

// Server is a minimal BattlEye RCON server used only for tests. It is not a
// general-purpose server implementation: it authenticates against one fixed
// password and otherwise does whatever the test script tells it to.
type Server struct {
	conn     *net.UDPConn
	password string

	mu       sync.Mutex
	engine   *proto.ServerEngine
	peer     *net.UDPAddr
	handler  CommandHandler
	refuse   bool
	dropCommands bool
	nextMsg  byte
	acks     []byte
	commands []CommandReceived

	closed chan struct{}
	wg     sync.WaitGroup
}

// CommandReceived records one command the server observed, for assertions
// about keep-alive traffic and retransmission.
type CommandReceived struct {
	Sequence byte
	Text     string
}

// NewServer binds an ephemeral UDP port on loopback and starts serving.
func NewServer(password string) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		return nil, err
	}

	s := &Server{
		conn:     conn,
		password: password,
		engine:   proto.NewServerEngine(),
		closed:   make(chan struct{}),
		handler:  func(seq byte, text string) string { return "" },
	}

	s.wg.Add(1)
	go s.serve()
	return s, nil
}

// Addr is the "host:port" string a client should dial.
func (s *Server) Addr() string { return s.conn.LocalAddr().String() }

// SetCommandHandler installs the function used to answer commands.
func (s *Server) SetCommandHandler(h CommandHandler) {
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
}

// RefuseNextLogin causes the next login attempt to be rejected.
func (s *Server) RefuseNextLogin() {
	s.mu.Lock()
	s.refuse = true
	s.mu.Unlock()
}

// ResetSession returns the server's protocol engine to NO_AUTH, as if the
// client's old transport-level session had gone away and a new one just
// dialed in. Used to let a reconnect test drive a real re-login against
// the same Server rather than a freshly dialed one.
func (s *Server) ResetSession() {
	s.mu.Lock()
	s.engine = proto.NewServerEngine()
	s.mu.Unlock()
}

// Commands returns every command the server has received so far.
func (s *Server) Commands() []CommandReceived {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CommandReceived, len(s.commands))
	copy(out, s.commands)
	return out
}

// Acks returns every message-acknowledgement sequence the server has
// received so far.
func (s *Server) Acks() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.acks))
	copy(out, s.acks)
	return out
}

// SendMessage pushes a server-initiated broadcast to the connected peer,
// auto-incrementing the sequence number.
func (s *Server) SendMessage(text string) (byte, error) {
	s.mu.Lock()
	seq := s.nextMsg
	s.nextMsg++
	s.mu.Unlock()

	return seq, s.SendMessageWithSeq(seq, text)
}

// SendMessageWithSeq pushes a server-initiated broadcast using an explicit
// sequence number, so tests can resend the same sequence to exercise
// client-side dedup.
func (s *Server) SendMessageWithSeq(seq byte, text string) error {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return errNoPeer
	}

	b, err := s.engine.SendMessage(seq, text)
	if err != nil {
		return err
	}
	_, err = s.conn.WriteToUDP(b, peer)
	return err
}

// DropCommands, when enabled, makes the server silently ignore every
// ClientCommand it receives instead of responding — used to exercise
// client-side command timeout and retransmission.
func (s *Server) DropCommands(drop bool) {
	s.mu.Lock()
	s.dropCommands = drop
	s.mu.Unlock()
}

// SendFragments sends a multipart command response, one datagram per entry
// in order, in the index order given by order (so tests can reproduce
// arrival reordering).
func (s *Server) SendFragments(seq byte, parts []string, order []int) error {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return errNoPeer
	}

	total := uint8(len(parts))
	for _, idx := range order {
		b, err := s.engine.SendCommandFragment(seq, total, uint8(idx), parts[idx])
		if err != nil {
			return err
		}
		if _, err := s.conn.WriteToUDP(b, peer); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the serve loop and releases the socket.
func (s *Server) Close() error {
	select {
	case <-s.closed:
		return nil
	default:
		close(s.closed)
	}
	err := s.conn.Close()
	s.wg.Wait()
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()

	buf := make([]byte, 4096)
	for {
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])

		s.mu.Lock()
		s.peer = addr
		s.mu.Unlock()

		s.handleDatagram(raw, addr)
	}
}

func (s *Server) handleDatagram(raw []byte, addr *net.UDPAddr) {
	req, err := s.engine.ReceiveDatagram(raw)
	if err != nil {
		return
	}

	switch req.Kind {
	case proto.RequestLogin:
		s.mu.Lock()
		accept := req.Text == s.password && !s.refuse
		s.refuse = false
		s.mu.Unlock()

		b, err := s.engine.SendLoginResult(accept)
		if err != nil {
			return
		}
		s.conn.WriteToUDP(b, addr)

	case proto.RequestCommand:
		s.mu.Lock()
		s.commands = append(s.commands, CommandReceived{Sequence: req.Sequence, Text: req.Text})
		handler := s.handler
		drop := s.dropCommands
		s.mu.Unlock()

		if drop {
			return
		}

		resp := handler(req.Sequence, req.Text)
		b, err := s.engine.SendCommandResponse(req.Sequence, resp)
		if err != nil {
			return
		}
		s.conn.WriteToUDP(b, addr)

	case proto.RequestMessageAck:
		s.mu.Lock()
		s.acks = append(s.acks, req.Sequence)
		s.mu.Unlock()
	}
}
