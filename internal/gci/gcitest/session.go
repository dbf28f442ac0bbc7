// Package gcitest provides a scriptable in-memory gci.Session for tests.
package gcitest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gembrowse/internal/gci"
)

type Call struct {
	Method string
	Args   []string
}

func (c Call) String() string {
	if len(c.Args) == 0 {
		return c.Method
	}
	return c.Method + "(" + strings.Join(c.Args, ",") + ")"
}

type rule struct {
	contains string
	result   string
	err      error
}

// Session answers ExecuteFetchBytes from rules matched by substring of the
// submitted source. Unmatched source yields an empty result.
type Session struct {
	mu sync.Mutex

	Busy       bool
	BusyErr    error
	ResolveErr error

	// PerformErr, NewStringErr, NewSymbolErr, CompileErr and ClearStackErr
	// fail the corresponding call when set.
	PerformErr    error
	NewStringErr  error
	NewSymbolErr  error
	CompileErr    error
	ClearStackErr error

	rules   []rule
	calls   []Call
	execs   []gci.ExecuteRequest
	symbols map[string]gci.OOP
	nextOOP gci.OOP
}

func NewSession() *Session {
	return &Session{
		symbols: map[string]gci.OOP{},
		nextOOP: 0x1000,
	}
}

// Respond registers a canned result for source containing fragment.
func (s *Session) Respond(fragment, result string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: fragment, result: result})
	return s
}

// Fail registers a failure for source containing fragment.
func (s *Session) Fail(fragment string, err error) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule{contains: fragment, err: err})
	return s
}

func (s *Session) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Busy = busy
}

func (s *Session) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Session) CallNames() []string {
	calls := s.Calls()
	out := make([]string, 0, len(calls))
	for _, call := range calls {
		out = append(out, call.Method)
	}
	return out
}

func (s *Session) Executions() []gci.ExecuteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gci.ExecuteRequest(nil), s.execs...)
}

func (s *Session) ExecuteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.execs)
}

func (s *Session) record(method string, args ...string) {
	s.calls = append(s.calls, Call{Method: method, Args: args})
}

func (s *Session) alloc() gci.OOP {
	s.nextOOP += 8
	return s.nextOOP
}

func (s *Session) CallInProgress(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CallInProgress")
	return s.Busy, s.BusyErr
}

func (s *Session) ResolveSymbol(ctx context.Context, name string, symbolList gci.OOP) (gci.OOP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ResolveSymbol", name)
	if s.ResolveErr != nil {
		return gci.OOPIllegal, s.ResolveErr
	}
	if oop, ok := s.symbols[name]; ok {
		return oop, nil
	}
	oop := s.alloc()
	s.symbols[name] = oop
	return oop, nil
}

func (s *Session) ExecuteFetchBytes(ctx context.Context, req gci.ExecuteRequest) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ExecuteFetchBytes")
	s.execs = append(s.execs, req)
	for _, r := range s.rules {
		if !strings.Contains(req.Source, r.contains) {
			continue
		}
		if r.err != nil {
			return nil, r.err
		}
		return []byte(r.result), nil
	}
	return nil, nil
}

func (s *Session) NewString(ctx context.Context, value string) (gci.OOP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("NewString", value)
	if s.NewStringErr != nil {
		return gci.OOPIllegal, s.NewStringErr
	}
	return s.alloc(), nil
}

func (s *Session) NewSymbol(ctx context.Context, value string) (gci.OOP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("NewSymbol", value)
	if s.NewSymbolErr != nil {
		return gci.OOPIllegal, s.NewSymbolErr
	}
	return s.alloc(), nil
}

func (s *Session) Perform(ctx context.Context, receiver gci.OOP, selector string, args ...gci.OOP) (gci.OOP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Perform", receiver.String(), selector)
	if s.PerformErr != nil {
		return gci.OOPIllegal, s.PerformErr
	}
	return s.alloc(), nil
}

func (s *Session) CompileMethod(ctx context.Context, req gci.CompileRequest) (gci.OOP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("CompileMethod", req.Class.String(), fmt.Sprintf("env=%d", req.Environment))
	if s.CompileErr != nil {
		return gci.OOPNil, s.CompileErr
	}
	return s.alloc(), nil
}

func (s *Session) ClearStack(ctx context.Context, process gci.OOP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("ClearStack", process.String())
	return s.ClearStackErr
}

var _ gci.Session = (*Session)(nil)
