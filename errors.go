package xlxdma

import (
	"errors"
	"fmt"
)

// Error represents a structured driver error with channel context.
type Error struct {
	Op      string    // operation that failed (e.g. "configure", "submit")
	Channel int       // channel index, -1 if not applicable
	Code    ErrorCode // high-level error category
	Msg     string    // human-readable message
	Inner   error      // wrapped error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Channel >= 0 {
		parts = append(parts, fmt.Sprintf("channel=%d", e.Channel))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("xlxdma: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("xlxdma: %s", msg)
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode is a high-level error category, mirroring the errno-style
// codes the register-level driver would report.
type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "invalid argument"  // EINVAL
	CodePermissionDenied ErrorCode = "permission denied" // EPERM
	CodeOutOfMemory      ErrorCode = "out of memory"     // ENOMEM
	CodeBusy             ErrorCode = "busy"              // EBUSY / EAGAIN
	CodeTimeout          ErrorCode = "timeout"           // ETIME
	CodeIOError          ErrorCode = "I/O error"         // EIO
	CodeCanceled         ErrorCode = "canceled"          // ECANCELED
)

// NewError creates a channel-less structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Channel: -1, Code: code, Msg: msg}
}

// NewChannelError creates a structured error scoped to a channel.
func NewChannelError(op string, channel int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Channel: channel, Code: code, Msg: msg}
}

// WrapError wraps inner with driver context, preserving its code if it
// is already a structured *Error.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if e, ok := inner.(*Error); ok {
		return &Error{Op: op, Channel: e.Channel, Code: e.Code, Msg: e.Msg, Inner: e.Inner}
	}
	return &Error{Op: op, Channel: -1, Code: CodeIOError, Msg: inner.Error(), Inner: inner}
}

// IsCode reports whether err is a structured *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
