package rcon

import (
	"github.com/battleye-go/rcon/internal/connector"
	"github.com/battleye-go/rcon/proto"
)

// Debug is called with extra diagnostic detail from the connector (datagrams
// illegal for the current state, keep-alive send failures); a no-op by
// default, in the style of the
// teacher's ws.WSDebug. Overriding it after a Client has started connecting
// is safe but may race with an in-flight log line.
var Debug = func(v ...interface{}) {}

// Logf is called for non-fatal internal conditions that are logged and
// dropped rather than surfaced as an error — malformed multipart fragments
// (a total that changes mid-assembly, or a redelivered index with a
// different payload). A no-op by default.
var Logf = func(format string, args ...interface{}) {}

func init() {
	connector.Debug = func(v ...interface{}) { Debug(v...) }
	proto.Logf = func(format string, args ...interface{}) { Logf(format, args...) }
}
