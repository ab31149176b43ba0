// Package tokens reads and writes the flat, delimiter-terminated token streams used by the
// authoring and runtime dialogue formats.
//
// A v1 stream starts with a format tag token and escapes the delimiter and the escape
// character inside tokens with a backslash. A stream whose first token is a decimal integer
// is a legacy stream: untagged and unescaped, split on the bare delimiter.
package tokens

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/dialoguetree/pkg/domain"
)

const (
	// Delimiter terminates every token.
	Delimiter = '`'
	// Escape makes the next character literal.
	Escape = '\\'
)

// Writer accumulates tokens for one stream.
type Writer struct {
	sb strings.Builder
}

// NewWriter starts a stream with the given format tag.
func NewWriter(tag string) *Writer {
	w := &Writer{}
	w.String(tag)
	return w
}

// String writes a free-text token.
func (w *Writer) String(s string) {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == Delimiter || c == Escape {
			w.sb.WriteByte(Escape)
		}
		w.sb.WriteByte(s[i])
	}
	w.sb.WriteByte(Delimiter)
}

// Int writes a decimal integer token.
func (w *Writer) Int(v int) {
	w.String(strconv.Itoa(v))
}

// Float writes the shortest decimal form that parses back to the same value.
func (w *Writer) Float(v float64) {
	w.String(strconv.FormatFloat(v, 'f', -1, 64))
}

// Bool writes "true" or "false".
func (w *Writer) Bool(v bool) {
	w.String(strconv.FormatBool(v))
}

// Stream returns the encoded stream.
func (w *Writer) Stream() string {
	return w.sb.String()
}

// Reader consumes tokens in order. The first error is sticky: later reads return zero
// values and Err reports what went wrong.
type Reader struct {
	tokens []string
	pos    int
	legacy bool
	err    error
}

// NewReader splits a stream and checks its format tag. Legacy streams are accepted
// without a tag. A stream of at most one token carries no data and is accepted whatever
// that token is.
func NewReader(stream, tag string) (*Reader, error) {
	if isLegacy(stream) {
		return &Reader{tokens: splitLegacy(stream), legacy: true}, nil
	}

	toks, err := split(stream)
	if err != nil {
		return nil, err
	}
	r := &Reader{tokens: toks}
	if len(toks) <= 1 {
		return r, nil
	}
	if toks[0] != tag {
		return nil, fmt.Errorf("%w: format tag %q, want %q", domain.ErrMalformedStream, toks[0], tag)
	}
	r.pos = 1
	return r, nil
}

// Empty reports whether the stream holds no data: nothing at all, or a lone token.
func (r *Reader) Empty() bool {
	return len(r.tokens) <= 1
}

// Legacy reports whether the stream used the untagged legacy format.
func (r *Reader) Legacy() bool {
	return r.legacy
}

// Remaining returns how many tokens are left.
func (r *Reader) Remaining() int {
	return len(r.tokens) - r.pos
}

// Err returns the first error met while reading.
func (r *Reader) Err() error {
	return r.err
}

// Done fails the reader if tokens are left over.
func (r *Reader) Done() error {
	if r.err == nil && r.Remaining() > 0 {
		r.err = fmt.Errorf("%w: %d trailing tokens at position %d", domain.ErrMalformedStream, r.Remaining(), r.pos)
	}
	return r.err
}

func (r *Reader) next(field string) (string, bool) {
	if r.err != nil {
		return "", false
	}
	if r.pos >= len(r.tokens) {
		r.err = fmt.Errorf("%w: stream ends before %s (position %d)", domain.ErrMalformedStream, field, r.pos)
		return "", false
	}
	tok := r.tokens[r.pos]
	r.pos++
	return tok, true
}

func (r *Reader) fail(field, tok string, err error) {
	r.err = fmt.Errorf("%w: %s %q at position %d: %v", domain.ErrMalformedStream, field, tok, r.pos-1, err)
}

// String reads a free-text token.
func (r *Reader) String(field string) string {
	tok, _ := r.next(field)
	return tok
}

// Int reads a decimal integer token.
func (r *Reader) Int(field string) int {
	tok, ok := r.next(field)
	if !ok {
		return 0
	}
	v, err := strconv.Atoi(tok)
	if err != nil {
		r.fail(field, tok, err)
		return 0
	}
	return v
}

// Count reads a non-negative element count and checks that at least perItem tokens
// per element are still available, so a corrupt count cannot trigger a huge allocation.
func (r *Reader) Count(field string, perItem int) int {
	n := r.Int(field)
	if r.err != nil {
		return 0
	}
	if n < 0 {
		r.fail(field, strconv.Itoa(n), fmt.Errorf("negative count"))
		return 0
	}
	if perItem > 0 && n > r.Remaining()/perItem {
		r.fail(field, strconv.Itoa(n), fmt.Errorf("only %d tokens left", r.Remaining()))
		return 0
	}
	return n
}

// Float reads a decimal floating point token.
func (r *Reader) Float(field string) float64 {
	tok, ok := r.next(field)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("not a finite number")
	}
	if err != nil {
		r.fail(field, tok, err)
		return 0
	}
	return v
}

// Bool reads a boolean token. "True"/"False" from legacy streams are accepted.
func (r *Reader) Bool(field string) bool {
	tok, ok := r.next(field)
	if !ok {
		return false
	}
	v, err := strconv.ParseBool(tok)
	if err != nil {
		r.fail(field, tok, err)
		return false
	}
	return v
}

func isLegacy(stream string) bool {
	head, _, _ := strings.Cut(stream, string(Delimiter))
	if head == "" {
		return false
	}
	_, err := strconv.Atoi(head)
	return err == nil
}

func splitLegacy(stream string) []string {
	toks := strings.Split(stream, string(Delimiter))
	if len(toks) > 0 && toks[len(toks)-1] == "" {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func split(stream string) ([]string, error) {
	var (
		toks    []string
		cur     strings.Builder
		escaped bool
		open    bool
	)
	// Byte-wise: both special characters are ASCII, so UTF-8 text passes through untouched.
	for i := 0; i < len(stream); i++ {
		c := stream[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == Escape:
			escaped = true
			open = true
		case c == Delimiter:
			toks = append(toks, cur.String())
			cur.Reset()
			open = false
		default:
			cur.WriteByte(c)
			open = true
		}
	}
	if escaped {
		return nil, fmt.Errorf("%w: stream ends inside an escape", domain.ErrMalformedStream)
	}
	// The last token may omit its delimiter.
	if open {
		toks = append(toks, cur.String())
	}
	return toks, nil
}
