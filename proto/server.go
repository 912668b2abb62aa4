package proto

import "github.com/battleye-go/rcon/wire"

// ServerState is the symmetric counterpart to State, used by the server side
// of the protocol that exists only for testing the client against.
type ServerState uint8

const (
	// ServerNoAuth is the initial state: no login attempt has arrived yet.
	ServerNoAuth ServerState = iota
	// ServerAuthenticated is entered once the server accepts a login.
	ServerAuthenticated
	// ServerClosed is terminal.
	ServerClosed
)

func (s ServerState) String() string {
	switch s {
	case ServerNoAuth:
		return "NO_AUTH"
	case ServerAuthenticated:
		return "AUTHENTICATED"
	case ServerClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ClientRequestKind discriminates the ClientRequest variant ServerEngine
// emits from ReceiveDatagram.
type ClientRequestKind uint8

const (
	// RequestLogin carries the attempted password.
	RequestLogin ClientRequestKind = iota
	// RequestCommand carries a client command.
	RequestCommand
	// RequestMessageAck carries the client's acknowledgement of a server
	// message sequence.
	RequestMessageAck
)

// ClientRequest is what ServerEngine.ReceiveDatagram reports the client
// asked for. Text and Sequence are populated according to Kind.
type ClientRequest struct {
	Kind     ClientRequestKind
	Sequence byte
	Text     string
}

// ServerEngine is the sans-I/O server-side half of the protocol: it exists
// only so tests (and any future server implementation) can drive the wire
// format without hand-assembling frames. It does not decide login
// acceptance or command responses — that policy belongs to the caller (see
// internal/rcontest).
type ServerEngine struct {
	state ServerState
}

// NewServerEngine creates a ServerEngine in state NO_AUTH.
func NewServerEngine() *ServerEngine {
	return &ServerEngine{state: ServerNoAuth}
}

// State reports the engine's current ServerState.
func (e *ServerEngine) State() ServerState { return e.state }

// ReceiveDatagram decodes raw as a client->server frame. It does not mutate
// state by itself; the caller mutates state via SendLoginResult/Close based
// on the returned ClientRequest.
func (e *ServerEngine) ReceiveDatagram(raw []byte) (ClientRequest, error) {
	pkt, err := wire.Decode(raw, wire.ClientToServer)
	if err != nil {
		return ClientRequest{}, err
	}

	switch pkt.Kind {
	case wire.KindLogin:
		return ClientRequest{Kind: RequestLogin, Text: pkt.Text()}, nil
	case wire.KindCommand:
		return ClientRequest{Kind: RequestCommand, Sequence: pkt.Sequence, Text: pkt.Text()}, nil
	case wire.KindMessage:
		return ClientRequest{Kind: RequestMessageAck, Sequence: pkt.Sequence}, nil
	default:
		return ClientRequest{}, &InvalidStateError{Input: pkt.Kind.String()}
	}
}

// SendLoginResult emits a ServerLogin frame and transitions NO_AUTH to
// AUTHENTICATED (accepted) or CLOSED (refused).
func (e *ServerEngine) SendLoginResult(accepted bool) ([]byte, error) {
	if e.state != ServerNoAuth {
		return nil, &InvalidStateError{State: State(e.state), Input: "send_login_result"}
	}

	b, err := wire.Encode(wire.NewServerLogin(accepted))
	if err != nil {
		return nil, err
	}

	if accepted {
		e.state = ServerAuthenticated
	} else {
		e.state = ServerClosed
	}
	return b, nil
}

// SendCommandResponse emits a single-part ServerCommand response.
func (e *ServerEngine) SendCommandResponse(seq byte, text string) ([]byte, error) {
	if e.state != ServerAuthenticated {
		return nil, &InvalidStateError{State: State(e.state), Input: "send_command_response"}
	}
	return wire.Encode(wire.NewServerCommandResponse(seq, text))
}

// SendCommandFragment emits one fragment of a multipart ServerCommand
// response. Callers control total/index/ordering directly so tests can
// exercise permuted, duplicated, or truncated fragment delivery.
func (e *ServerEngine) SendCommandFragment(seq byte, total, index uint8, text string) ([]byte, error) {
	if e.state != ServerAuthenticated {
		return nil, &InvalidStateError{State: State(e.state), Input: "send_command_fragment"}
	}
	return wire.Encode(wire.NewServerCommandFragment(seq, total, index, text))
}

// SendMessage emits a ServerMessage broadcast.
func (e *ServerEngine) SendMessage(seq byte, text string) ([]byte, error) {
	if e.state != ServerAuthenticated {
		return nil, &InvalidStateError{State: State(e.state), Input: "send_message"}
	}
	return wire.Encode(wire.NewServerMessage(seq, text))
}

// Close transitions the engine to CLOSED. Idempotent.
func (e *ServerEngine) Close() {
	e.state = ServerClosed
}
