package rcon

import "github.com/battleye-go/rcon/internal/connector"

// EventKind discriminates the variants a Session publishes over OnEvent, per
// §4.4's tagged-variant event surface.
type EventKind = connector.EventKind

const (
	EventRawPacket       = connector.EventRawPacket
	EventLogin           = connector.EventLogin
	EventLoginFailure    = connector.EventLoginFailure
	EventCommandResponse = connector.EventCommandResponse
	EventServerMessage   = connector.EventServerMessage
	EventDisconnected    = connector.EventDisconnected
)

// LoginFailureKind discriminates why a login attempt failed: refused by the
// server, or no reply within the timeout.
type LoginFailureKind = connector.LoginFailureKind

const (
	LoginFailureRefused = connector.LoginFailureRefused
	LoginFailureTimeout = connector.LoginFailureTimeout
)

// Event is the tagged variant a Session publishes to its consumers.
type Event = connector.Event
