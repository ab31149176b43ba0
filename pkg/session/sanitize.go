package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxTextSize bounds one speaker, body or preview field.
	DefaultMaxTextSize = 4096
	// EnvMaxTextSize is the environment variable to override the default
	EnvMaxTextSize = "DIALOGUETREE_MAX_TEXT_SIZE"
)

var (
	ErrTextTooLarge = errors.New("text exceeds maximum allowed size")
	ErrInvalidUTF8  = errors.New("text contains invalid UTF-8 sequences")
)

// SanitizeText cleans editor text by enforcing size limits, validating UTF-8 and
// stripping control characters other than newline, tab and carriage return.
func SanitizeText(input string) (string, error) {
	limit := maxTextSize()
	if len(input) > limit {
		// Rejected rather than truncated so the stored line is what the author sent.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTextTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxTextSize() int {
	if val := os.Getenv(EnvMaxTextSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxTextSize
}

func sanitizeField(name string, v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	clean, err := SanitizeText(*v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &clean, nil
}
