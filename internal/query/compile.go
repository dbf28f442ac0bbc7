package query

import (
	"context"
	"strings"

	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
)

type CompileRequest struct {
	ClassName   string
	IsMeta      bool
	Category    string
	Source      string
	Environment int
}

// CompileMethod compiles Source into the class (or its metaclass) through the
// call interface rather than generated code, so the source text never needs
// quoting. Each step depends on the handle produced by the one before. The
// category is passed through as given; the image decides whether it is valid.
func (s *Service) CompileMethod(ctx context.Context, sess gci.Session, req CompileRequest) (gci.OOP, error) {
	const op = "compile method"
	if strings.TrimSpace(req.ClassName) == "" {
		return gci.OOPNil, invalidError(op, "class name is required")
	}
	if err := s.exec.checkIdle(ctx, sess, op); err != nil {
		return gci.OOPNil, err
	}

	s.diag.LogGciCall("ResolveSymbol", logging.F("name", req.ClassName))
	target, err := sess.ResolveSymbol(ctx, req.ClassName, gci.OOPNil)
	s.diag.LogGciResult("ResolveSymbol", target, err)
	if err != nil {
		return gci.OOPNil, remoteError(ErrorResolve, op, "cannot resolve class "+req.ClassName, err)
	}

	if req.IsMeta {
		s.diag.LogGciCall("Perform", logging.F("receiver", target), logging.F("selector", "class"))
		meta, err := sess.Perform(ctx, target, "class")
		s.diag.LogGciResult("Perform", meta, err)
		if err != nil {
			return gci.OOPNil, remoteError(ErrorMetaclass, op, "cannot get metaclass of "+req.ClassName, err)
		}
		target = meta
	}

	s.diag.LogGciCall("NewString", logging.F("bytes", len(req.Source)), logging.Body("source", req.Source))
	source, err := sess.NewString(ctx, req.Source)
	s.diag.LogGciResult("NewString", source, err)
	if err != nil {
		return gci.OOPNil, remoteError(ErrorAllocate, op, "cannot allocate source string", err)
	}

	s.diag.LogGciCall("NewSymbol", logging.F("value", req.Category))
	category, err := sess.NewSymbol(ctx, req.Category)
	s.diag.LogGciResult("NewSymbol", category, err)
	if err != nil {
		return gci.OOPNil, remoteError(ErrorAllocate, op, "cannot allocate category symbol", err)
	}

	s.diag.LogGciCall("CompileMethod", logging.F("class", target), logging.F("env", req.Environment))
	method, err := sess.CompileMethod(ctx, gci.CompileRequest{
		Source:           source,
		Class:            target,
		Category:         category,
		SymbolList:       gci.OOPNil,
		OverrideSelector: gci.OOPNil,
		Flags:            0,
		Environment:      req.Environment,
	})
	s.diag.LogGciResult("CompileMethod", method, err)
	if err != nil {
		s.clearDanglingContext(ctx, sess, err)
		return gci.OOPNil, remoteError(ErrorCompile, op, "compile failed", err)
	}
	return method, nil
}

// clearDanglingContext terminates the process a failed compile left behind.
// Otherwise the next call reports a pending exception context. Failure here
// is logged and dropped.
func (s *Service) clearDanglingContext(ctx context.Context, sess gci.Session, compileErr error) {
	gerr, ok := gci.AsError(compileErr)
	if !ok || !gerr.HasContext() {
		return
	}
	s.diag.LogGciCall("ClearStack", logging.F("process", gerr.Context))
	err := sess.ClearStack(ctx, gerr.Context)
	s.diag.LogGciResult("ClearStack", nil, err)
	if err != nil {
		s.logger.Warn("clear stack after failed compile", logging.F("process", gerr.Context), logging.F("error", err))
	}
}
