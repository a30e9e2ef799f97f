// Package apperr defines the closed set of domain error kinds shared by the
// core decision engines and mapped to HTTP statuses at the transport edge.
package apperr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates domain failures. The set is closed; transport code
// switches over it exhaustively.
type Kind int

const (
	// KindUnknown marks errors that did not originate in this package.
	KindUnknown Kind = iota
	// KindNotFound: a referenced document, version, user or token does not exist.
	KindNotFound
	// KindInsufficientPermission: permission resolution denied the capability.
	KindInsufficientPermission
	// KindTokenExpired: the download token's expiry has passed.
	KindTokenExpired
	// KindTokenAlreadyUsed: the download token was already consumed.
	KindTokenAlreadyUsed
	// KindConstraintViolation: a uniqueness constraint fired at commit time.
	// Callers are expected to retry with freshly loaded state.
	KindConstraintViolation
	// KindValidation: malformed or rejected input.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInsufficientPermission:
		return "insufficient_permission"
	case KindTokenExpired:
		return "token_expired"
	case KindTokenAlreadyUsed:
		return "token_already_used"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error is the concrete domain error. UserID, DocumentID and Capability are
// populated for permission denials only.
type Error struct {
	kind Kind
	msg  string
	err  error

	UserID     uuid.UUID
	DocumentID uuid.UUID
	Capability string
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's discriminant.
func (e *Error) Kind() Kind { return e.kind }

// New builds an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// ConstraintViolation wraps a commit-time uniqueness failure.
func ConstraintViolation(err error, format string, args ...any) *Error {
	return Wrap(KindConstraintViolation, err, format, args...)
}

// TokenExpired builds a KindTokenExpired error.
func TokenExpired() *Error {
	return New(KindTokenExpired, "download token expired")
}

// TokenAlreadyUsed builds a KindTokenAlreadyUsed error.
func TokenAlreadyUsed() *Error {
	return New(KindTokenAlreadyUsed, "download token already used")
}

// PermissionDenied builds a KindInsufficientPermission error carrying the
// actor, the document and the capability that was required.
func PermissionDenied(userID, documentID uuid.UUID, capability string) *Error {
	return &Error{
		kind:       KindInsufficientPermission,
		msg:        fmt.Sprintf("user %s lacks %s on document %s", userID, capability, documentID),
		UserID:     userID,
		DocumentID: documentID,
		Capability: capability,
	}
}

// KindOf extracts the Kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind()
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
