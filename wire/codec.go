package wire

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// magic is the two-byte ASCII prefix of every frame.
var magic = [2]byte{'B', 'E'}

// headerSize is the size of the fixed frame header (magic, CRC, 0xFF,
// kind byte) before the body starts.
const headerSize = 8

// minPacketSize is the smallest well-formed frame: the header plus at least
// one body byte (a bare sequence number, for instance).
const minPacketSize = headerSize + 1

// MaxPacketSize bounds the serialized size Encode will produce. It is set
// generously above the 1500-byte MTU-sized buffer real BattlEye clients
// read into, so it only guards against pathological encodes rather than
// trying to mirror an undocumented protocol limit.
const MaxPacketSize = 4096

const (
	multipartSentinel = 0x00
	loginRefused       = 0x00
	loginAccepted      = 0x01
)

// Encode serializes p into a wire frame. It fails with ErrPacketTooLarge if
// the result would exceed MaxPacketSize.
func Encode(p Packet) ([]byte, error) {
	kindByte, body, err := encodeBody(p)
	if err != nil {
		return nil, err
	}

	total := 2 + 4 + 2 + len(body)
	if total > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}

	signed := make([]byte, 2+len(body))
	signed[0] = 0xFF
	signed[1] = kindByte
	copy(signed[2:], body)

	crc := crc32.ChecksumIEEE(signed)

	frame := make([]byte, 0, total)
	frame = append(frame, magic[0], magic[1])
	frame = binary.LittleEndian.AppendUint32(frame, crc)
	frame = append(frame, signed...)

	return frame, nil
}

func encodeBody(p Packet) (byte, []byte, error) {
	switch {
	case p.Kind == KindLogin && p.Direction == ClientToServer:
		return byte(KindLogin), p.Payload, nil

	case p.Kind == KindLogin && p.Direction == ServerToClient:
		result := byte(loginRefused)
		if p.Accepted {
			result = loginAccepted
		}
		return byte(KindLogin), []byte{result}, nil

	case p.Kind == KindCommand && p.Direction == ClientToServer:
		body := make([]byte, 0, 1+len(p.Payload))
		body = append(body, p.Sequence)
		body = append(body, p.Payload...)
		return byte(KindCommand), body, nil

	case p.Kind == KindCommand && p.Direction == ServerToClient:
		if !p.Multipart {
			body := make([]byte, 0, 1+len(p.Payload))
			body = append(body, p.Sequence)
			body = append(body, p.Payload...)
			return byte(KindCommand), body, nil
		}
		if p.Total == 0 || p.Index >= p.Total {
			return 0, nil, errors.Wrap(ErrMalformedPacket, "invalid multipart header")
		}
		body := make([]byte, 0, 4+len(p.Payload))
		body = append(body, p.Sequence, multipartSentinel, p.Total, p.Index)
		body = append(body, p.Payload...)
		return byte(KindCommand), body, nil

	case p.Kind == KindMessage && p.Direction == ServerToClient:
		body := make([]byte, 0, 1+len(p.Payload))
		body = append(body, p.Sequence)
		body = append(body, p.Payload...)
		return byte(KindMessage), body, nil

	case p.Kind == KindMessage && p.Direction == ClientToServer:
		return byte(KindMessage), []byte{p.Sequence}, nil

	default:
		return 0, nil, errors.Wrap(ErrMalformedPacket, "unsupported kind/direction combination")
	}
}

// Decode parses raw into a Packet. dir tells the decoder which side
// originated the frame, since the body layout for KindCommand differs by
// direction and the wire format itself carries no direction marker.
//
// Decode is total: it never panics or reads out of bounds, regardless of
// input.
func Decode(raw []byte, dir Direction) (Packet, error) {
	if len(raw) < minPacketSize {
		return Packet{}, errors.Wrapf(ErrMalformedPacket, "frame too short (%d bytes)", len(raw))
	}
	if raw[0] != magic[0] || raw[1] != magic[1] {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "bad magic")
	}
	if raw[6] != 0xFF {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "missing 0xFF marker")
	}

	signed := raw[6:]
	storedCRC := binary.LittleEndian.Uint32(raw[2:6])
	if crc32.ChecksumIEEE(signed) != storedCRC {
		return Packet{}, ErrChecksumMismatch
	}

	kindByte := raw[7]
	body := raw[8:]

	switch kindByte {
	case byte(KindLogin):
		return decodeLogin(body, dir)
	case byte(KindCommand):
		return decodeCommand(body, dir)
	case byte(KindMessage):
		return decodeMessage(body, dir)
	default:
		return Packet{}, errors.Wrapf(ErrMalformedPacket, "unknown packet type %d", kindByte)
	}
}

func decodeLogin(body []byte, dir Direction) (Packet, error) {
	if dir == ClientToServer {
		return Packet{Kind: KindLogin, Direction: dir, Payload: body}, nil
	}

	if len(body) != 1 {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "login result must be one byte")
	}
	switch body[0] {
	case loginAccepted:
		return Packet{Kind: KindLogin, Direction: dir, Accepted: true}, nil
	case loginRefused:
		return Packet{Kind: KindLogin, Direction: dir, Accepted: false}, nil
	default:
		return Packet{}, errors.Wrap(ErrMalformedPacket, "invalid login result byte")
	}
}

func decodeCommand(body []byte, dir Direction) (Packet, error) {
	if len(body) == 0 {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "command body missing sequence")
	}
	seq := body[0]

	if dir == ClientToServer {
		return Packet{
			Kind:      KindCommand,
			Direction: dir,
			Sequence:  seq,
			Payload:   body[1:],
		}, nil
	}

	rest := body[1:]
	if len(rest) == 0 {
		return Packet{Kind: KindCommand, Direction: dir, Sequence: seq}, nil
	}
	if rest[0] != multipartSentinel {
		return Packet{
			Kind:      KindCommand,
			Direction: dir,
			Sequence:  seq,
			Payload:   rest,
		}, nil
	}

	if len(rest) < 3 {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "truncated multipart header")
	}
	total, index := rest[1], rest[2]
	if total == 0 || index >= total {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "invalid multipart total/index")
	}

	return Packet{
		Kind:      KindCommand,
		Direction: dir,
		Sequence:  seq,
		Multipart: true,
		Total:     total,
		Index:     index,
		Payload:   rest[3:],
	}, nil
}

func decodeMessage(body []byte, dir Direction) (Packet, error) {
	if len(body) == 0 {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "message body missing sequence")
	}

	if dir == ServerToClient {
		return Packet{
			Kind:      KindMessage,
			Direction: dir,
			Sequence:  body[0],
			Payload:   body[1:],
		}, nil
	}

	if len(body) != 1 {
		return Packet{}, errors.Wrap(ErrMalformedPacket, "message acknowledgement must be one byte")
	}
	return Packet{Kind: KindMessage, Direction: dir, Sequence: body[0]}, nil
}
