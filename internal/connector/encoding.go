package connector

import "golang.org/x/text/encoding"

// encodeOutbound transcodes text into cfg.Encoding's byte representation,
// re-wrapped as a string so it can still flow through proto.ClientEngine's
// string-typed SendLogin/SendCommand — a Go string-to-[]byte conversion
// never re-interprets bytes, so the transcoded bytes reach the wire intact
// regardless of whether they're valid UTF-8. A nil Encoding is a no-op:
// text is sent as-is.
func encodeOutbound(enc encoding.Encoding, text string) (string, error) {
	if enc == nil {
		return text, nil
	}
	b, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
