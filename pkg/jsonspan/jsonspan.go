// Package jsonspan decodes JSON embedded in free-form model output.
//
// Language models frequently wrap the requested JSON in commentary or code
// fences. The helpers here locate the outermost span between an opening and
// closing delimiter and decode only that span.
package jsonspan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoSpan is returned when the text contains no delimited span
var ErrNoSpan = errors.New("no JSON span found in response")

// ParseError records why model output could not be decoded. Raw keeps the
// full original text so callers can log or surface it.
type ParseError struct {
	Raw   string
	Cause error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable model response: %v", e.Cause)
}

// Unwrap returns the underlying decode error
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ArraySpan returns the text between the first '[' and the last ']' inclusive.
func ArraySpan(text string) (string, bool) {
	return span(text, "[", "]")
}

// ObjectSpan returns the text between the first '{' and the last '}' inclusive.
func ObjectSpan(text string) (string, bool) {
	return span(text, "{", "}")
}

func span(text, open, close string) (string, bool) {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// DecodeArray locates the array span in text and decodes it into a slice of T.
// Any failure is reported as a *ParseError; the returned slice is never nil on success.
func DecodeArray[T any](text string) ([]T, error) {
	raw, ok := ArraySpan(text)
	if !ok {
		return nil, &ParseError{Raw: text, Cause: ErrNoSpan}
	}

	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &ParseError{Raw: text, Cause: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}
