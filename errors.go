package rcon

import (
	"github.com/battleye-go/rcon/internal/connector"
	"github.com/battleye-go/rcon/proto"
	"github.com/battleye-go/rcon/wire"
)

// Error kinds (§6, §7): distinct values satisfying error so callers can
// switch on them with errors.Is, the way gateway.go matches *ws.CloseEvent
// against known close codes.
var (
	// ErrLoginRefused means the server rejected the password. Connect-fatal,
	// not retried.
	ErrLoginRefused = connector.ErrLoginRefused
	// ErrLoginTimeout means no ServerLogin reply arrived before
	// Config.ConnectionTimeout (on first connect) or the re-authentication
	// attempt after a reconnect.
	ErrLoginTimeout = connector.ErrLoginTimeout
	// ErrRCONCommandError means a command's round trip didn't complete
	// within Config.CommandTimeout, retries exhausted.
	ErrRCONCommandError = connector.ErrRCONCommandError
	// ErrNotConnected is returned by SendCommand/Send once the session has
	// been torn down, and delivered to any command still awaiting a
	// response when that happens.
	ErrNotConnected = connector.ErrNotConnected
)

// Typed programmer-error and decode-error kinds, re-exported from the
// packages that define them so callers never need to import proto or wire
// directly just to do an errors.As check.
type (
	// InvalidStateError is returned when an operation is illegal for the
	// session's current state (§7, programmer errors).
	InvalidStateError = proto.InvalidStateError
)

var (
	// ErrMalformedPacket is the decode-time error kind for a corrupt or
	// ill-formed frame.
	ErrMalformedPacket = wire.ErrMalformedPacket
	// ErrChecksumMismatch is the decode-time error kind for a frame whose
	// declared CRC32 disagrees with the bytes received.
	ErrChecksumMismatch = wire.ErrChecksumMismatch
	// ErrPacketTooLarge is returned when encoding would exceed the
	// protocol's maximum datagram size.
	ErrPacketTooLarge = wire.ErrPacketTooLarge
	// ErrNoAvailableSequence means all 256 command sequence numbers are
	// currently outstanding; vanishingly unlikely outside a stuck server.
	ErrNoAvailableSequence = proto.ErrNoAvailableSequence
)

// translateError passes connector/proto/wire errors straight through. It
// exists as a single seam so a future version of this package can wrap
// errors with request-specific context without touching every call site.
func translateError(err error) error {
	return err
}
