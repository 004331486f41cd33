package errs

import "errors"

// Kind classifies a failure so transport handlers can map it to a
// protocol response without matching on message text.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindNotFound
	KindExpired
	KindInvalidCredential
	KindInvalidToken
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindExpired:
		return "expired"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindInvalidToken:
		return "invalid_token"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error        { return newError(KindValidation, message) }
func Conflict(message string) *Error          { return newError(KindConflict, message) }
func Authentication(message string) *Error    { return newError(KindAuthentication, message) }
func NotFound(message string) *Error          { return newError(KindNotFound, message) }
func Expired(message string) *Error           { return newError(KindExpired, message) }
func InvalidCredential(message string) *Error { return newError(KindInvalidCredential, message) }
func InvalidToken(message string) *Error      { return newError(KindInvalidToken, message) }

// Wrap attaches a kind to an underlying error while keeping it
// reachable through errors.Is / errors.As.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown when err does not
// carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
