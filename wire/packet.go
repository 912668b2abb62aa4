// Package wire implements the BattlEye RCON binary frame format: a small
// CRC32-guarded header followed by a kind-specific body. It only knows how to
// turn a Packet into bytes and back; it never touches a socket and never
// blocks.
package wire

// Kind is the packet type carried in the frame header.
type Kind uint8

const (
	// KindLogin carries the client password (client→server) or the
	// accepted/refused result (server→client).
	KindLogin Kind = iota
	// KindCommand carries a request (client→server) or its response, which
	// may be split across several fragments (server→client).
	KindCommand
	// KindMessage carries a server-initiated broadcast (server→client) or
	// its acknowledgement (client→server).
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindLogin:
		return "Login"
	case KindCommand:
		return "Command"
	case KindMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

// Direction identifies which end of the connection originated a Packet. The
// wire body layout for KindCommand differs between directions, so Decode
// must be told which direction it's decoding.
type Direction uint8

const (
	// ClientToServer is the direction of packets a client sends.
	ClientToServer Direction = iota
	// ServerToClient is the direction of packets a server sends.
	ServerToClient
)

// Packet is the decoded, direction-tagged representation of a single frame.
// Not every field is meaningful for every Kind/Direction combination; see the
// constructors below for the valid combinations.
type Packet struct {
	Kind      Kind
	Direction Direction

	// Sequence identifies a KindCommand request/response pair, or a
	// KindMessage broadcast/acknowledgement pair. Unused for KindLogin.
	Sequence byte

	// Multipart is true for a fragmented server→client KindCommand response.
	Multipart bool
	// Total is the fragment count; only meaningful when Multipart is true.
	Total uint8
	// Index is this fragment's position; only meaningful when Multipart is
	// true. Index < Total always holds for a well-formed Packet.
	Index uint8

	// Accepted is the login result for a server→client KindLogin packet.
	Accepted bool

	// Payload is the opaque body: the password for a login request, the
	// command/response/message text otherwise. It is never NUL-terminated.
	Payload []byte
}

// NewClientLogin builds the client→server login request.
func NewClientLogin(password string) Packet {
	return Packet{
		Kind:      KindLogin,
		Direction: ClientToServer,
		Payload:   []byte(password),
	}
}

// NewServerLogin builds the server→client login result.
func NewServerLogin(accepted bool) Packet {
	return Packet{
		Kind:      KindLogin,
		Direction: ServerToClient,
		Accepted:  accepted,
	}
}

// NewClientCommand builds a client→server command request.
func NewClientCommand(seq byte, text string) Packet {
	return Packet{
		Kind:      KindCommand,
		Direction: ClientToServer,
		Sequence:  seq,
		Payload:   []byte(text),
	}
}

// NewServerCommandResponse builds a single-frame server→client command
// response.
func NewServerCommandResponse(seq byte, text string) Packet {
	return Packet{
		Kind:      KindCommand,
		Direction: ServerToClient,
		Sequence:  seq,
		Payload:   []byte(text),
	}
}

// NewServerCommandFragment builds one fragment of a multipart server→client
// command response. total must be >= 1 and index must be < total.
func NewServerCommandFragment(seq byte, total, index uint8, text string) Packet {
	return Packet{
		Kind:      KindCommand,
		Direction: ServerToClient,
		Sequence:  seq,
		Multipart: true,
		Total:     total,
		Index:     index,
		Payload:   []byte(text),
	}
}

// NewServerMessage builds a server→client broadcast message.
func NewServerMessage(seq byte, text string) Packet {
	return Packet{
		Kind:      KindMessage,
		Direction: ServerToClient,
		Sequence:  seq,
		Payload:   []byte(text),
	}
}

// NewClientMessageAck builds the client→server acknowledgement of a
// broadcast message.
func NewClientMessageAck(seq byte) Packet {
	return Packet{
		Kind:      KindMessage,
		Direction: ClientToServer,
		Sequence:  seq,
	}
}

// Text is a convenience accessor returning Payload as a string.
func (p Packet) Text() string {
	return string(p.Payload)
}
