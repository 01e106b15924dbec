package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind categorizes a failed run.
type Kind int

const (
	KindUnexpected Kind = iota
	KindTransport
	KindParse
	KindFormat
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport error"
	case KindParse:
		return "parse error"
	case KindFormat:
		return "format error"
	default:
		return "unexpected error"
	}
}

// Error is returned by Fetch. ContentType is the declared media type of
// the response, when one was received.
type Error struct {
	Kind        Kind
	ContentType string
	Err         error
}

func (e *Error) Error() string {
	if e.Kind == KindFormat && e.ContentType != "" {
		return fmt.Sprintf("fetch: %v (Content-Type: %s)", e.Err, e.ContentType)
	}
	return fmt.Sprintf("fetch: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. Fetch errors carry their own kind; JSON decoding
// errors from anywhere else count as parse errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindParse
	}
	return KindUnexpected
}
