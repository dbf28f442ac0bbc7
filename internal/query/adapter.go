package query

import (
	"context"
	"sync"

	"gembrowse/internal/diagnostics"
	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
)

// MaxResultSize bounds every fetch. Larger results are truncated remotely.
const MaxResultSize = 256 * 1024

// resultClassName is the class that marks fetched bytes as a string.
const resultClassName = "String"

// Executor runs generated code against a session and returns its string
// result. It enforces the single-flight rule: a session that already has a
// call in progress fails immediately rather than queueing.
type Executor struct {
	diag diagnostics.Sink

	mu      sync.Mutex
	symbols map[gci.Session]gci.OOP
}

func NewExecutor(diag diagnostics.Sink) *Executor {
	if diag == nil {
		diag = diagnostics.Nop()
	}
	return &Executor{
		diag:    diag,
		symbols: make(map[gci.Session]gci.OOP),
	}
}

func (e *Executor) FetchString(ctx context.Context, sess gci.Session, label, code string) (string, error) {
	e.diag.LogQuery(label, code)

	if err := e.checkIdle(ctx, sess, label); err != nil {
		return "", err
	}
	resultClass, err := e.resultClass(ctx, sess)
	if err != nil {
		qerr := remoteError(ErrorResolve, label, "cannot resolve result class", err)
		e.diag.LogError(label, qerr)
		return "", qerr
	}

	data, err := sess.ExecuteFetchBytes(ctx, gci.ExecuteRequest{
		Source:        code,
		SourceSize:    -1,
		SourceClass:   resultClass,
		Context:       gci.OOPNoContext,
		SymbolList:    gci.OOPNil,
		MaxResultSize: MaxResultSize,
	})
	if err != nil {
		qerr := remoteError(ErrorRemote, label, "remote execution failed", err)
		e.diag.LogError(label, qerr)
		return "", qerr
	}
	text := string(data)
	e.diag.LogResult(label, text)
	return text, nil
}

func (e *Executor) checkIdle(ctx context.Context, sess gci.Session, label string) error {
	busy, err := sess.CallInProgress(ctx)
	if err != nil {
		qerr := remoteError(ErrorRemote, label, "cannot query session state", err)
		e.diag.LogError(label, qerr)
		return qerr
	}
	if busy {
		qerr := busyError(label)
		e.diag.LogError(label, qerr)
		return qerr
	}
	return nil
}

// resultClass resolves the result class once per session. The value is
// immutable for the lifetime of the session, so it is never invalidated.
func (e *Executor) resultClass(ctx context.Context, sess gci.Session) (gci.OOP, error) {
	e.mu.Lock()
	oop, ok := e.symbols[sess]
	e.mu.Unlock()
	if ok {
		return oop, nil
	}

	e.diag.LogGciCall("ResolveSymbol", logging.F("name", resultClassName))
	oop, err := sess.ResolveSymbol(ctx, resultClassName, gci.OOPNil)
	e.diag.LogGciResult("ResolveSymbol", oop, err)
	if err != nil {
		return gci.OOPIllegal, err
	}

	e.mu.Lock()
	e.symbols[sess] = oop
	e.mu.Unlock()
	return oop, nil
}

// Forget drops the cached result class of a session that has logged out.
func (e *Executor) Forget(sess gci.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.symbols, sess)
}
