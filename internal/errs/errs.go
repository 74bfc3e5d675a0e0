// Package errs is the shared failure taxonomy. Every asynchronous operation
// in the client core resolves to a value or a *errs.Error so callers can
// match on kind instead of inspecting message strings.
package errs

import "errors"

type Kind int

const (
	// KindUnknown is the zero value; returned by KindOf for foreign errors.
	KindUnknown Kind = iota
	// KindValidation: caught before any network call (missing phone,
	// oversized or unsupported file). Surfaced inline, never logged as a
	// system failure.
	KindValidation
	// KindDevice: camera permission or hardware failure at the widget
	// boundary.
	KindDevice
	// KindUpload: a per-file upload failure; never fatal to a batch.
	KindUpload
	// KindNetwork: transport-level failure reaching a remote service.
	KindNetwork
	// KindBackend: the backend answered with a non-2xx response.
	KindBackend
	// KindAuth: a failure from the authentication provider.
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDevice:
		return "device"
	case KindUpload:
		return "upload"
	case KindNetwork:
		return "network"
	case KindBackend:
		return "backend"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error carries a kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnknown when err is not from this
// taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-facing message of err, falling back to
// err.Error() for foreign errors.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
