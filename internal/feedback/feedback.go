// Package feedback holds the user-facing error taxonomy and the transient
// notices shown after every action.
package feedback

import "errors"

// Kind classifies a user-facing failure.
type Kind int

const (
	// KindValidation is caught locally before any network call.
	KindValidation Kind = iota + 1
	// KindAuthentication covers bad credentials and rejected OTP codes.
	KindAuthentication
	// KindConflict covers duplicate records such as a reused email.
	KindConflict
	// KindTransport covers network failures and unrecognised backend details.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	case KindTransport:
		return "transport"
	}
	return "unknown"
}

// Error is a failure already mapped to exactly one user-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a local validation failure.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindValidation
}

// detailer is implemented by backend errors that carry a `detail` string.
type detailer interface {
	ErrorDetail() string
}

// Rule maps one backend detail string to a message.
type Rule struct {
	Detail  string
	Kind    Kind
	Message string
}

// Table resolves backend failures for one user action.
type Table struct {
	Rules    []Rule
	Fallback string
}

// Resolve maps err to exactly one user-facing message. Errors that are already
// *Error pass through; unmatched details and transport failures get Fallback.
func (t Table) Resolve(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	var d detailer
	if errors.As(err, &d) {
		detail := d.ErrorDetail()
		for _, r := range t.Rules {
			if r.Detail == detail {
				return &Error{Kind: r.Kind, Message: r.Message, Err: err}
			}
		}
	}
	return &Error{Kind: KindTransport, Message: t.Fallback, Err: err}
}

// Level is the visual severity of a Notice.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a transient notification shown once.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Success builds a success notice.
func Success(message string) Notice {
	return Notice{Level: LevelSuccess, Message: message}
}

// Failure builds an error notice from err, using fallback when err was not
// mapped to a message.
func Failure(err error, fallback string) Notice {
	var fe *Error
	if errors.As(err, &fe) && fe.Message != "" {
		return Notice{Level: LevelError, Message: fe.Message}
	}
	return Notice{Level: LevelError, Message: fallback}
}
