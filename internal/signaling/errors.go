package signaling

import (
	"errors"
	"fmt"
)

var (
	ErrNameTaken         = errors.New("name taken")
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrAlreadyLoggedIn   = errors.New("already logged in")
	ErrRoleMismatch      = errors.New("role not permitted")
	ErrTargetUnavailable = errors.New("target unavailable")
	ErrAlreadyInCall     = errors.New("already in a call")
	ErrMalformed         = errors.New("malformed message")
)

// ProtocolError is a rejected client action. Message is the text the
// client sees in error{message}.
type ProtocolError struct {
	Op      string
	Err     error
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

func reject(op string, err error, message string) *ProtocolError {
	return &ProtocolError{Op: op, Err: err, Message: message}
}

func malformed(op, field string) error {
	return fmt.Errorf("%s: missing %s: %w", op, field, ErrMalformed)
}
