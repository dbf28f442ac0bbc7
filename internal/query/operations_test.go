package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"gembrowse/internal/gci"
	"gembrowse/internal/gci/gcitest"
)

func newTestService() *Service {
	return NewService(nil, nil, nil)
}

func TestDictionaryNamesKeepsRemoteOrder(t *testing.T) {
	sess := gcitest.NewSession().Respond("symbolList do:", "UserGlobals\nGlobals\nPublished\n")
	names, err := newTestService().DictionaryNames(context.Background(), sess)
	if err != nil {
		t.Fatalf("DictionaryNames: %v", err)
	}
	want := []string{"UserGlobals", "Globals", "Published"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %#v, want %#v", names, want)
	}
}

func TestDictionaryEntriesTargetsIndex(t *testing.T) {
	sess := gcitest.NewSession().Respond("symbolList at: 2) keysAndValuesDo:", "1\tKernel\tObject\n0\t\tAllUsers\n")
	entries, err := newTestService().DictionaryEntries(context.Background(), sess, 2)
	if err != nil {
		t.Fatalf("DictionaryEntries: %v", err)
	}
	if len(entries) != 2 || !entries[0].IsClass || entries[1].IsClass {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}

func TestClassEnvironmentsDecodes(t *testing.T) {
	sess := gcitest.NewSession().Respond("categorysDo:", "0\t0\taccessing\tsize\n1\t1\tinstance creation\tnew\n")
	entries, err := newTestService().ClassEnvironments(context.Background(), sess, 1, "Array", 1)
	if err != nil {
		t.Fatalf("ClassEnvironments: %v", err)
	}
	want := []EnvironmentEntry{
		{Category: "accessing", Selector: "size"},
		{IsMeta: true, Environment: 1, Category: "instance creation", Selector: "new"},
	}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("entries = %#v, want %#v", entries, want)
	}
}

func TestSearchesReportTruncation(t *testing.T) {
	sess := gcitest.NewSession().Respond("implementorsOf:", "Globals\tArray\t0\tsize\taccessing\n"+TruncatedMarker+"\t501\n")
	list, err := newTestService().Implementors(context.Background(), sess, "size")
	if err != nil {
		t.Fatalf("Implementors: %v", err)
	}
	if !list.Truncated || list.Total != 501 || len(list.Methods) != 1 {
		t.Fatalf("unexpected list: %#v", list)
	}
}

func TestFindClassAndHierarchy(t *testing.T) {
	sess := gcitest.NewSession().
		Respond("ifAbsent: [nil]) isBehavior", "1\tGlobals\n4\tScratch\n").
		Respond("allSuperclasses", "Globals\tObject\tsuperclass\nGlobals\tCollection\ttarget\n")
	svc := newTestService()

	refs, err := svc.FindClass(context.Background(), sess, "Collection")
	if err != nil {
		t.Fatalf("FindClass: %v", err)
	}
	if len(refs) != 2 || refs[1].Index != 4 {
		t.Fatalf("unexpected refs: %#v", refs)
	}
	hierarchy, err := svc.ClassHierarchy(context.Background(), sess, 1, "Collection")
	if err != nil {
		t.Fatalf("ClassHierarchy: %v", err)
	}
	if len(hierarchy) != 2 || hierarchy[0].Kind != HierarchySuperclass {
		t.Fatalf("unexpected hierarchy: %#v", hierarchy)
	}
}

func TestContentFetchesReturnRawText(t *testing.T) {
	sess := gcitest.NewSession().
		Respond("sourceString", "size\n\t^ tally").
		Respond("definition", "Object subclass: 'Foo'").
		Respond("comment ifNil:", "A comment").
		Respond("printString", "an Array( )")
	svc := newTestService()
	ctx := context.Background()

	checks := []struct {
		name string
		get  func() (string, error)
		want string
	}{
		{"source", func() (string, error) { return svc.MethodSource(ctx, sess, 1, "Foo", false, "size", 0) }, "size\n\t^ tally"},
		{"definition", func() (string, error) { return svc.ClassDefinition(ctx, sess, 1, "Foo") }, "Object subclass: 'Foo'"},
		{"comment", func() (string, error) { return svc.ClassComment(ctx, sess, 1, "Foo") }, "A comment"},
		{"global", func() (string, error) { return svc.GlobalPrintString(ctx, sess, 1, "AllThings") }, "an Array( )"},
	}
	for _, check := range checks {
		got, err := check.get()
		if err != nil {
			t.Fatalf("%s: %v", check.name, err)
		}
		if got != check.want {
			t.Fatalf("%s = %q, want %q", check.name, got, check.want)
		}
	}
}

func TestReadOperationsPropagateBusy(t *testing.T) {
	sess := gcitest.NewSession()
	sess.SetBusy(true)
	_, err := newTestService().DictionaryEntries(context.Background(), sess, 1)
	if !errors.Is(err, ErrSessionBusy) {
		t.Fatalf("expected busy error, got %v", err)
	}
}

func TestReadOperationsPropagateRemoteError(t *testing.T) {
	sess := gcitest.NewSession().Fail("categorysDo:", &gci.Error{Number: 2010, Message: "key not found"})
	_, err := newTestService().ClassEnvironments(context.Background(), sess, 1, "Missing", 0)
	if !IsKind(err, ErrorRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
}
