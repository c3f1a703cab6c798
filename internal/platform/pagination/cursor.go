// Package pagination implements opaque cursor pagination with RFC 8288
// Link headers.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCursor indicates a cursor that could not be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor identifies a position in a listing. Type namespaces the cursor so
// a cursor from one listing cannot be replayed against another.
type Cursor struct {
	Type  string
	Value string
}

// Encode returns the cursor as an opaque URL-safe token.
func (c Cursor) Encode() string {
	return base64.RawURLEncoding.EncodeToString([]byte(c.Type + ":" + c.Value))
}

// DecodeCursor parses an encoded cursor. An empty string decodes to the
// zero Cursor, meaning "start from the beginning".
func DecodeCursor(encoded string) (Cursor, error) {
	if encoded == "" {
		return Cursor{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	typ, value, ok := strings.Cut(string(raw), ":")
	if !ok {
		return Cursor{}, fmt.Errorf("%w: missing separator", ErrInvalidCursor)
	}

	return Cursor{Type: typ, Value: value}, nil
}
