// Package timeutil provides a JSON/CBOR-friendly time type and the
// offset-based local-day helpers shared by the quota and timezone engines.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

const (
	// RFC3339Millis formats UTC instants with millisecond precision.
	RFC3339Millis = "2006-01-02T15:04:05.000Z"

	// RFC3339Micros formats UTC instants with microsecond precision,
	// matching Cloud Logging timestamp expectations.
	RFC3339Micros = "2006-01-02T15:04:05.000000Z"
)

// Time wraps time.Time with millisecond-precision JSON marshaling and
// CBOR tag 0 (RFC 3339 text) encoding.
type Time struct {
	time.Time
}

// NewTime wraps the given time.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// Now returns the current time wrapped as Time.
func Now() Time {
	return Time{Time: time.Now()}
}

// MarshalJSON renders the time as a quoted RFC 3339 UTC string with
// millisecond precision.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(RFC3339Millis) + `"`), nil
}

// UnmarshalJSON accepts RFC 3339 strings with any sub-second precision.
// A JSON null preserves the existing value.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if len(s) < len("2006-01-02") {
		return fmt.Errorf("timeutil: invalid time string %q", s)
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timeutil: parse time: %w", err)
	}
	t.Time = parsed
	return nil
}

// MarshalCBOR renders the time as CBOR tag 0 (standard date/time string).
func (t Time) MarshalCBOR() ([]byte, error) {
	s := t.UTC().Format(RFC3339Millis)
	data := make([]byte, 0, 2+len(s))
	data = append(data, 0xc0) // tag 0
	data = appendCBORTextString(data, s)
	return data, nil
}

// UnmarshalCBOR accepts a tag 0 date/time string or a bare text string.
func (t *Time) UnmarshalCBOR(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("timeutil: empty CBOR data")
	}
	if data[0] == 0xc0 {
		data = data[1:]
	}
	s, err := decodeCBORTextString(data)
	if err != nil {
		return err
	}
	parsed, err := time.Parse(RFC3339Millis, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("timeutil: parse CBOR time: %w", err)
		}
	}
	t.Time = parsed
	return nil
}

// appendCBORTextString appends a CBOR major type 3 (text string) encoding of s.
// Supports lengths up to 65535 bytes, which covers all timestamp strings.
func appendCBORTextString(data []byte, s string) []byte {
	n := len(s)
	switch {
	case n < 24:
		data = append(data, 0x60+byte(n))
	case n < 256:
		data = append(data, 0x78, byte(n))
	default:
		data = append(data, 0x79, byte(n>>8), byte(n))
	}
	return append(data, s...)
}

// decodeCBORTextString decodes a CBOR major type 3 (text string) value.
func decodeCBORTextString(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("timeutil: empty CBOR text string")
	}
	major := data[0] >> 5
	if major != 3 {
		return "", fmt.Errorf("timeutil: expected CBOR text string, got major type %d", major)
	}

	info := data[0] & 0x1f
	var n, offset int
	switch {
	case info < 24:
		n = int(info)
		offset = 1
	case info == 24:
		if len(data) < 2 {
			return "", fmt.Errorf("timeutil: truncated CBOR length")
		}
		n = int(data[1])
		offset = 2
	case info == 25:
		if len(data) < 3 {
			return "", fmt.Errorf("timeutil: truncated CBOR length")
		}
		n = int(data[1])<<8 | int(data[2])
		offset = 3
	default:
		return "", fmt.Errorf("timeutil: unsupported CBOR length encoding %d", info)
	}

	if len(data) < offset+n {
		return "", fmt.Errorf("timeutil: truncated CBOR payload")
	}
	return string(data[offset : offset+n]), nil
}
