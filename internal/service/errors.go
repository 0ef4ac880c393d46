package service

import "errors"

// Kind classifies a failed operation so transports can choose how to report it.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

const (
	MsgServerError  = "Server error"
	MsgUserNotFound = "User not found"
)

// Error is the failure result of a service operation. Message is safe to show
// to callers; Err carries the underlying cause and is meant for logs only.
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func userNotFound(op string, err error) *Error {
	return &Error{Kind: KindNotFound, Message: MsgUserNotFound, Op: op, Err: err}
}

func internalError(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgServerError, Op: op, Err: err}
}

// AsError returns err as a service Error, treating any foreign error as internal.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return internalError("unknown", err)
}
