package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"zombiezen.com/go/sqlite"
)

// Result codes used outside this package.
const (
	CodeOK         = int(sqlite.ResultOK)
	CodeError      = int(sqlite.ResultError)
	CodeInterrupt  = int(sqlite.ResultInterrupt)
	CodeConstraint = int(sqlite.ResultConstraint)
)

// Error is an engine failure carrying the SQLite result code.
type Error struct {
	Op      string // compile, step, reset, ...
	Code    int    // SQLite (extended) result code
	Message string // engine message
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("engine: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// PrimaryCode returns the primary result code (the low byte of Code).
func (e *Error) PrimaryCode() int {
	return e.Code & 0xff
}

// Code extracts the result code from err, or CodeError when err does not
// come from the engine. A nil error yields CodeOK.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	return CodeError
}

func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	code := sqlite.ErrCode(err)
	return &Error{
		Op:      op,
		Code:    int(code),
		Message: engineMessage(err, code),
		Err:     err,
	}
}

// functionError wraps an error returned by a registered function. Its
// message is the function's own text, as SQLite reports it.
func functionError(err error) error {
	return &Error{
		Op:      "step",
		Code:    CodeError,
		Message: err.Error(),
		Err:     err,
	}
}

// 例: "sqlite: prepare: 1:1: SQL logic error: near \"SELEC\": syntax error"
var (
	driverPrefix = regexp.MustCompile(`^sqlite: [a-z ]+: `)
	errorOffset  = regexp.MustCompile(`^\d+:\d+: `)
)

// engineMessage strips the driver's decoration from err and returns the
// engine's own message.
func engineMessage(err error, code sqlite.ResultCode) string {
	msg := err.Error()
	msg = driverPrefix.ReplaceAllString(msg, "")
	msg = errorOffset.ReplaceAllString(msg, "")
	if rest, ok := strings.CutPrefix(msg, code.Message()+": "); ok && rest != "" {
		msg = rest
	}
	return msg
}
