package wire

import "github.com/pkg/errors"

// ErrMalformedPacket is returned by Decode when the input is too short, has
// a bad magic or packet type, or has an ill-formed multipart envelope.
var ErrMalformedPacket = errors.New("wire: malformed packet")

// ErrChecksumMismatch is returned by Decode when the header-declared CRC32
// disagrees with the CRC32 computed over the received bytes.
var ErrChecksumMismatch = errors.New("wire: checksum mismatch")

// ErrPacketTooLarge is returned by Encode when the serialized frame would
// exceed MaxPacketSize.
var ErrPacketTooLarge = errors.New("wire: packet exceeds protocol maximum")
