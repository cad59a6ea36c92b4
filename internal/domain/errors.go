package domain

import (
	"errors"
)

// Kind classifies pipeline failures. Only the HTTP and bot layers turn a Kind
// into something a user sees.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmptyInput
	KindServiceUnavailable
	KindModelNotFound
	KindEmptyResponse
	KindGenerationError
	KindExtractionFailed
	KindInvalidUpload
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindEmptyInput:
		return "empty_input"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindModelNotFound:
		return "model_not_found"
	case KindEmptyResponse:
		return "empty_response"
	case KindGenerationError:
		return "generation_error"
	case KindExtractionFailed:
		return "extraction_failed"
	case KindInvalidUpload:
		return "invalid_upload"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

//nolint:gochecknoglobals // Sentinels for errors.Is.
var (
	ErrEmptyInput         = &Error{Kind: KindEmptyInput}
	ErrServiceUnavailable = &Error{Kind: KindServiceUnavailable}
	ErrModelNotFound      = &Error{Kind: KindModelNotFound}
	ErrEmptyResponse      = &Error{Kind: KindEmptyResponse}
	ErrGenerationError    = &Error{Kind: KindGenerationError}
	ErrExtractionFailed   = &Error{Kind: KindExtractionFailed}
	ErrInvalidUpload      = &Error{Kind: KindInvalidUpload}
	ErrTimeout            = &Error{Kind: KindTimeout}
)

// Error is a classified pipeline failure wrapping the collaborator error, if any.
type Error struct {
	Kind Kind
	Err  error
}

func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}
