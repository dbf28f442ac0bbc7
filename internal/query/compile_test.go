package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gembrowse/internal/gci"
	"gembrowse/internal/gci/gcitest"
)

func compileRequest(isMeta bool) CompileRequest {
	return CompileRequest{
		ClassName:   "Account",
		IsMeta:      isMeta,
		Category:    "accessing",
		Source:      "balance\n\t^ balance",
		Environment: 0,
	}
}

func TestCompileMethodInstanceSide(t *testing.T) {
	sess := gcitest.NewSession()
	method, err := newTestService().CompileMethod(context.Background(), sess, compileRequest(false))
	if err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	if method == gci.OOPNil {
		t.Fatalf("expected method handle")
	}
	want := []string{"CallInProgress", "ResolveSymbol", "NewString", "NewSymbol", "CompileMethod"}
	if got := sess.CallNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
}

func TestCompileMethodClassSideFetchesMetaclass(t *testing.T) {
	sess := gcitest.NewSession()
	req := compileRequest(true)
	req.Environment = 2
	if _, err := newTestService().CompileMethod(context.Background(), sess, req); err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	calls := sess.Calls()
	want := []string{"CallInProgress", "ResolveSymbol", "Perform", "NewString", "NewSymbol", "CompileMethod"}
	if got := sess.CallNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if calls[2].Args[1] != "class" {
		t.Fatalf("expected #class perform, got %v", calls[2])
	}
	if calls[5].Args[1] != "env=2" {
		t.Fatalf("expected environment passed to compile, got %v", calls[5])
	}
}

func TestCompileMethodStepFailures(t *testing.T) {
	remote := &gci.Error{Number: 2101, Message: "boom"}
	cases := []struct {
		name  string
		setup func(*gcitest.Session)
		meta  bool
		kind  ErrorKind
		last  string
	}{
		{"resolve", func(s *gcitest.Session) { s.ResolveErr = remote }, false, ErrorResolve, "ResolveSymbol"},
		{"metaclass", func(s *gcitest.Session) { s.PerformErr = remote }, true, ErrorMetaclass, "Perform"},
		{"string", func(s *gcitest.Session) { s.NewStringErr = remote }, false, ErrorAllocate, "NewString"},
		{"symbol", func(s *gcitest.Session) { s.NewSymbolErr = remote }, false, ErrorAllocate, "NewSymbol"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := gcitest.NewSession()
			tc.setup(sess)
			_, err := newTestService().CompileMethod(context.Background(), sess, compileRequest(tc.meta))
			if !IsKind(err, tc.kind) {
				t.Fatalf("expected %s error, got %v", tc.kind, err)
			}
			names := sess.CallNames()
			if names[len(names)-1] != tc.last {
				t.Fatalf("expected abort after %s, calls=%v", tc.last, names)
			}
			var qerr *Error
			if errors.As(err, &qerr) && qerr.Number != 2101 {
				t.Fatalf("expected remote number kept, got %d", qerr.Number)
			}
		})
	}
}

func TestCompileFailureClearsDanglingContext(t *testing.T) {
	sess := gcitest.NewSession()
	sess.CompileErr = &gci.Error{Number: 1001, Message: "undefined symbol", Context: gci.OOP(0x7700)}

	_, err := newTestService().CompileMethod(context.Background(), sess, compileRequest(false))
	if !IsKind(err, ErrorCompile) {
		t.Fatalf("expected compile error, got %v", err)
	}
	var qerr *Error
	if !errors.As(err, &qerr) || qerr.Number != 1001 {
		t.Fatalf("expected compile number kept, got %#v", err)
	}
	names := sess.CallNames()
	if names[len(names)-1] != "ClearStack" {
		t.Fatalf("expected ClearStack after failed compile, calls=%v", names)
	}
	if arg := sess.Calls()[len(names)-1].Args[0]; arg != gci.OOP(0x7700).String() {
		t.Fatalf("cleared wrong process: %s", arg)
	}
}

func TestCompileFailureWithoutContextSkipsClear(t *testing.T) {
	sess := gcitest.NewSession()
	sess.CompileErr = &gci.Error{Number: 1001, Message: "syntax error", Context: gci.OOPNil}
	_, _ = newTestService().CompileMethod(context.Background(), sess, compileRequest(false))
	for _, name := range sess.CallNames() {
		if name == "ClearStack" {
			t.Fatalf("did not expect ClearStack without context")
		}
	}
}

func TestClearStackFailureIsSwallowed(t *testing.T) {
	sess := gcitest.NewSession()
	sess.CompileErr = &gci.Error{Number: 1001, Message: "syntax error", Context: gci.OOP(0x7700)}
	sess.ClearStackErr = errors.New("connection reset")

	_, err := newTestService().CompileMethod(context.Background(), sess, compileRequest(false))
	if !IsKind(err, ErrorCompile) {
		t.Fatalf("expected the compile error, not the clear failure: %v", err)
	}
}

func TestCompileMethodBusySession(t *testing.T) {
	sess := gcitest.NewSession()
	sess.SetBusy(true)
	_, err := newTestService().CompileMethod(context.Background(), sess, compileRequest(false))
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
	if got := sess.CallNames(); !reflect.DeepEqual(got, []string{"CallInProgress"}) {
		t.Fatalf("unexpected calls: %v", got)
	}
}

func TestCompileMethodRequiresClassName(t *testing.T) {
	sess := gcitest.NewSession()
	req := compileRequest(false)
	req.ClassName = " "
	if _, err := newTestService().CompileMethod(context.Background(), sess, req); !IsKind(err, ErrorInvalid) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if len(sess.Calls()) != 0 {
		t.Fatalf("expected no remote calls")
	}
}

func TestCompileMethodLeavesBlankCategoryToImage(t *testing.T) {
	sess := gcitest.NewSession()
	req := compileRequest(false)
	req.Category = ""
	if _, err := newTestService().CompileMethod(context.Background(), sess, req); err != nil {
		t.Fatalf("CompileMethod: %v", err)
	}
	calls := sess.Calls()
	if calls[3].Method != "NewSymbol" || calls[3].Args[0] != "" {
		t.Fatalf("expected blank category symbol, got %v", calls[3])
	}

	sess = gcitest.NewSession()
	sess.NewSymbolErr = &gci.Error{Number: 2001, Message: "invalid symbol"}
	if _, err := newTestService().CompileMethod(context.Background(), sess, req); !IsKind(err, ErrorAllocate) {
		t.Fatalf("expected the image's rejection, got %v", err)
	}
}
