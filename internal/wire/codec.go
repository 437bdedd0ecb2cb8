package wire

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyMessage = errors.New("empty message")
	ErrInvalidUTF8  = errors.New("message is not valid UTF-8")
)

// Encode frames a message as a native X text list: UTF-8 strings separated
// by NUL bytes, with no terminator after the last one. A lone empty string
// encodes to no bytes.
func Encode(list []string) ([]byte, error) {
	if len(list) == 0 {
		return nil, ErrEmptyMessage
	}

	var buf bytes.Buffer
	for i, s := range list {
		if strings.IndexByte(s, 0) >= 0 {
			return nil, fmt.Errorf("element %d contains a NUL byte", i)
		}
		if !utf8.ValidString(s) {
			return nil, fmt.Errorf("element %d: %w", i, ErrInvalidUTF8)
		}
		if i > 0 {
			buf.WriteByte(0)
		}
		buf.WriteString(s)
	}
	return buf.Bytes(), nil
}

// Decode splits a property value back into its strings. Every NUL starts a
// new element, so a trailing NUL yields a trailing empty string.
func Decode(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, ErrEmptyMessage
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	return strings.Split(string(data), "\x00"), nil
}
