// Package gci describes the call interface of a live remote object-runtime
// session. The interface mirrors the thread-safe native call interface: every
// operation either succeeds or reports an *Error with a non-zero Number.
package gci

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// OOP is an opaque remote object handle.
type OOP uint64

const (
	OOPIllegal OOP = 0x01
	OOPFalse   OOP = 0x0C
	OOPNil     OOP = 0x14
	OOPTrue    OOP = 0x10C

	// OOPNoContext is passed as the context object when code runs without a receiver.
	OOPNoContext = OOPIllegal
)

func (o OOP) String() string {
	switch o {
	case OOPNil:
		return "nil"
	case OOPIllegal:
		return "illegal"
	case OOPTrue:
		return "true"
	case OOPFalse:
		return "false"
	}
	return fmt.Sprintf("oop:%d", uint64(o))
}

// Error is a failure reported by the remote side.
type Error struct {
	Number   int
	Message  string
	Reason   string
	Category OOP
	Context  OOP
	Fatal    bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = strings.TrimSpace(e.Reason)
	}
	if msg == "" {
		msg = "remote error"
	}
	return fmt.Sprintf("%s (error %d)", msg, e.Number)
}

// HasContext reports whether the failure left a suspended process behind.
func (e *Error) HasContext() bool {
	return e != nil && e.Context != 0 && e.Context != OOPNil && e.Context != OOPIllegal
}

type ExecuteRequest struct {
	Source string
	// SourceSize is -1 when Source is not length-limited.
	SourceSize    int
	SourceClass   OOP
	Context       OOP
	SymbolList    OOP
	MaxResultSize int
}

type CompileRequest struct {
	Source           OOP
	Class            OOP
	Category         OOP
	SymbolList       OOP
	OverrideSelector OOP
	Flags            uint32
	Environment      int
}

// Session is one authenticated connection. Implementations must be
// comparable (pointer types) because callers key caches by session.
type Session interface {
	CallInProgress(ctx context.Context) (bool, error)
	ResolveSymbol(ctx context.Context, name string, symbolList OOP) (OOP, error)
	ExecuteFetchBytes(ctx context.Context, req ExecuteRequest) ([]byte, error)
	NewString(ctx context.Context, value string) (OOP, error)
	NewSymbol(ctx context.Context, value string) (OOP, error)
	Perform(ctx context.Context, receiver OOP, selector string, args ...OOP) (OOP, error)
	CompileMethod(ctx context.Context, req CompileRequest) (OOP, error)
	ClearStack(ctx context.Context, process OOP) error
}

// AsError extracts a remote failure, if err carries one.
func AsError(err error) (*Error, bool) {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr, true
	}
	return nil, false
}
