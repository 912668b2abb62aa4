package rcon

import (
	"context"

	"github.com/battleye-go/rcon/internal/connector"
)

// Session is the scoped handle to one authenticated connection. All mutable
// connection state lives behind it; there is no process-wide registry of
// live sessions.
type Session struct {
	driver *connector.Driver
}

// SendCommand writes text as a ClientCommand and suspends until the
// assembled response arrives, the command exhausts its retries, or ctx is
// cancelled.
func (s *Session) SendCommand(ctx context.Context, text string) (string, error) {
	resp, err := s.driver.SendCommand(ctx, text)
	return resp, translateError(err)
}

// Send writes text as a ClientCommand and returns as soon as it's written,
// without waiting for or tracking a response.
func (s *Session) Send(text string) error {
	return translateError(s.driver.Send(text))
}

// OnEvent registers a consumer for the session's event stream (§4.4):
// RawPacket, Login, LoginFailure, CommandResponse, ServerMessage,
// Disconnected. Consumers run synchronously on whichever internal goroutine
// produced the event.
func (s *Session) OnEvent(consumer func(Event)) {
	s.driver.OnEvent(consumer)
}

// IsConnected reports whether the underlying socket is currently up.
func (s *Session) IsConnected() bool { return s.driver.IsConnected() }

// IsLoggedIn reports whether the session is currently authenticated.
func (s *Session) IsLoggedIn() bool { return s.driver.IsLoggedIn() }

// Close cancels the reader, keep-alive, and idle-monitor tasks, fails all
// outstanding commands with NotConnected, and closes the socket. Safe to
// call more than once.
func (s *Session) Close() error {
	return s.driver.Close()
}
