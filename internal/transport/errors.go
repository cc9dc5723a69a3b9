package transport

import "errors"

// Kind classifies a transport failure. The session manager and the
// entity cache decide their recovery path from the kind alone.
type Kind int

const (
	// KindNetwork covers transient transport failures: connection
	// errors, timeouts and 5xx responses. State is left unchanged by
	// callers, except that an in-flight optimistic mutation still
	// rolls back.
	KindNetwork Kind = iota
	// KindCredential is a rejected username/password at sign-in.
	// Never retried automatically.
	KindCredential
	// KindTokenInvalid is a rejected refresh token. Triggers an
	// unconditional session clear.
	KindTokenInvalid
	// KindValidation is a server-side input rejection on a mutation.
	// The message is surfaced verbatim to the UI.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindTokenInvalid:
		return "token_invalid"
	case KindValidation:
		return "validation"
	default:
		return "network"
	}
}

// Error is a classified transport failure. Message is always
// human-readable; for validation failures it is the server's message
// untouched.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error { return e.cause }

func kindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// IsCredential reports whether err is a rejected-credentials failure.
func IsCredential(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindCredential
}

// IsTokenInvalid reports whether err is a rejected refresh token.
func IsTokenInvalid(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTokenInvalid
}

// IsValidation reports whether err is a server-side input rejection.
func IsValidation(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindValidation
}

// IsNetwork reports whether err is a transient transport failure.
// Unclassified errors count as network failures so unknown breakage
// never masquerades as a credential or validation problem.
func IsNetwork(err error) bool {
	if err == nil {
		return false
	}
	k, ok := kindOf(err)
	return !ok || k == KindNetwork
}
