package query

import (
	"errors"
	"fmt"

	"gembrowse/internal/gci"
)

type ErrorKind string

const (
	ErrorRemote    ErrorKind = "remote"
	ErrorBusy      ErrorKind = "busy"
	ErrorResolve   ErrorKind = "resolve"
	ErrorMetaclass ErrorKind = "metaclass"
	ErrorAllocate  ErrorKind = "allocate"
	ErrorCompile   ErrorKind = "compile"
	ErrorProtocol  ErrorKind = "protocol"
	ErrorInvalid   ErrorKind = "invalid"
)

// ErrSessionBusy matches any error raised because the session already had a
// call in flight.
var ErrSessionBusy = errors.New("session busy")

type Error struct {
	Kind    ErrorKind
	Op      string
	Number  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Number != 0 {
		msg = fmt.Sprintf("%s (error %d)", msg, e.Number)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrSessionBusy && e != nil && e.Kind == ErrorBusy
}

func busyError(op string) *Error {
	return &Error{Kind: ErrorBusy, Op: op, Message: "session busy: another call is in progress"}
}

func invalidError(op, message string) *Error {
	return &Error{Kind: ErrorInvalid, Op: op, Message: message}
}

func protocolError(op, message string) *Error {
	return &Error{Kind: ErrorProtocol, Op: op, Message: message}
}

// remoteError wraps a transport or remote failure. Remote failures keep their
// number and message; a missing message falls back to fallback.
func remoteError(kind ErrorKind, op, fallback string, err error) *Error {
	out := &Error{Kind: kind, Op: op, Message: fallback, Err: err}
	gerr, ok := gci.AsError(err)
	switch {
	case ok && gerr.Message != "" && kind == ErrorRemote:
		out.Message = gerr.Message
	case ok && gerr.Message != "":
		out.Message = fallback + ": " + gerr.Message
	case !ok && err != nil:
		out.Message = fallback + ": " + err.Error()
	}
	if ok {
		out.Number = gerr.Number
	}
	return out
}

// IsKind reports whether err is a query error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var qerr *Error
	return errors.As(err, &qerr) && qerr.Kind == kind
}
