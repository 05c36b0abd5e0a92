package solcast

import (
	"fmt"
	"net/http"
)

// Kind classifies a failure returned by the client.
type Kind int

const (
	// KindGeneric is the catch-all, also used for missing resources and unexpected content.
	KindGeneric Kind = iota
	// KindConnection covers timeouts, transport failures and unclassified non-2xx statuses.
	KindConnection
	// KindAuthentication covers 401 and 403 responses.
	KindAuthentication
	// KindResults means the response did not have the expected shape.
	KindResults
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindAuthentication:
		return "authentication"
	case KindResults:
		return "results"
	default:
		return "generic"
	}
}

// Sentinels for errors.Is. Every *Error matches ErrGeneric.
var (
	ErrGeneric        = &Error{Kind: KindGeneric, Message: "solcast error"}
	ErrConnection     = &Error{Kind: KindConnection, Message: "solcast connection error"}
	ErrAuthentication = &Error{Kind: KindAuthentication, Message: "solcast authentication error"}
	ErrResults        = &Error{Kind: KindResults, Message: "solcast results error"}
)

// ContentDetails is attached when a successful response was not JSON.
type ContentDetails struct {
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
}

// Error is the single error type surfaced by the client.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Content    *ContentDetails
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the same kind; ErrGeneric matches any *Error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t == ErrGeneric {
		return true
	}
	return t.Kind == e.Kind && (t == ErrConnection || t == ErrAuthentication || t == ErrResults)
}

// StatusError is the underlying cause for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// FieldError reports a missing or malformed field while decoding a response.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("field %q is missing", e.Field)
	}
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
