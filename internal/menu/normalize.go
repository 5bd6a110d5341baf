package menu

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrMalformedOutput = errors.New("model output is not a valid weekly menu")

// ParseError carries the raw model text next to the reason it was rejected,
// so the caller can show both.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedOutput, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedOutput, e.Err}
}

// StripCodeFence removes a markdown code fence wrapped around the model
// output, including an optional language tag such as ```json.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return r < unicode.MaxASCII && unicode.IsLetter(r)
		})
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ParseModelOutput turns the text returned by the model into a validated
// document. Nothing partial is ever returned.
func ParseModelOutput(raw string) (*Document, error) {
	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return nil, &ParseError{Raw: raw, Err: errors.New("empty response")}
	}

	doc, err := Decode([]byte(cleaned))
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	if err := doc.Validate(); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return doc, nil
}
