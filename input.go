package squadchat

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize is the largest message accepted, in bytes.
const DefaultMaxInputSize = 4096

var (
	// ErrInvalidInput is wrapped by every rejection from SanitizeInput.
	ErrInvalidInput = errors.New("invalid input")

	ErrInputTooLarge = fmt.Errorf("%w: message exceeds maximum allowed size", ErrInvalidInput)
	ErrInvalidUTF8   = fmt.Errorf("%w: message contains invalid UTF-8 sequences", ErrInvalidInput)
	ErrEmptyMessage  = fmt.Errorf("%w: message is empty", ErrInvalidInput)
)

// SanitizeInput enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return. Oversized input is
// rejected, not truncated.
func SanitizeInput(input string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	out := input
	if strings.IndexFunc(input, isUnsafeControl) >= 0 {
		var b strings.Builder
		b.Grow(len(input))
		for _, r := range input {
			if !isUnsafeControl(r) {
				b.WriteRune(r)
			}
		}
		out = b.String()
	}

	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyMessage
	}
	return out, nil
}

func isUnsafeControl(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r'
}
