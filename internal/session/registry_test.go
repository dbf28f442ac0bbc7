package session

import (
	"context"
	"reflect"
	"testing"

	"gembrowse/internal/browser"
	"gembrowse/internal/gci/gcitest"
)

func TestRegistryAssignsSequentialIDs(t *testing.T) {
	r := NewRegistry()
	if err := r.Put(Entry{ID: 2, Description: "gateway", Handle: gcitest.NewSession()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	first := r.Add("one", gcitest.NewSession())
	second := r.Add("two", gcitest.NewSession())
	if first.ID != 1 || second.ID != 3 {
		t.Fatalf("unexpected ids %d %d", first.ID, second.ID)
	}
	var ids []int
	for _, entry := range r.List() {
		ids = append(ids, entry.ID)
	}
	if !reflect.DeepEqual(ids, []int{1, 2, 3}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestRegistryPutValidates(t *testing.T) {
	r := NewRegistry()
	if err := r.Put(Entry{ID: 0, Handle: gcitest.NewSession()}); err == nil {
		t.Fatalf("expected error for id 0")
	}
	if err := r.Put(Entry{ID: 1}); err == nil {
		t.Fatalf("expected error for missing handle")
	}
}

func TestSelectNotifiesOnChangeOnly(t *testing.T) {
	r := NewRegistry()
	a := r.Add("a", gcitest.NewSession())
	b := r.Add("b", gcitest.NewSession())
	var selected []int
	r.OnSelect(func(id int) { selected = append(selected, id) })

	for _, id := range []int{a.ID, a.ID, b.ID} {
		if err := r.Select(id); err != nil {
			t.Fatalf("Select(%d): %v", id, err)
		}
	}
	if !reflect.DeepEqual(selected, []int{a.ID, b.ID}) {
		t.Fatalf("selected = %v", selected)
	}
	if active, ok := r.Active(); !ok || active.ID != b.ID {
		t.Fatalf("active = %#v %v", active, ok)
	}
	if err := r.Select(99); err == nil {
		t.Fatalf("expected unknown session error")
	}
}

func TestRemoveActiveClearsSelection(t *testing.T) {
	r := NewRegistry()
	a := r.Add("a", gcitest.NewSession())
	_ = r.Select(a.ID)

	var removed []int
	var selected []int
	r.OnRemove(func(entry Entry) { removed = append(removed, entry.ID) })
	r.OnSelect(func(id int) { selected = append(selected, id) })

	if _, ok := r.Remove(a.ID); !ok {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := r.Active(); ok {
		t.Fatalf("expected no active session")
	}
	if !reflect.DeepEqual(removed, []int{a.ID}) || !reflect.DeepEqual(selected, []int{0}) {
		t.Fatalf("removed=%v selected=%v", removed, selected)
	}
	if _, ok := r.Session(a.ID); ok {
		t.Fatalf("removed session still resolvable")
	}
}

func TestRegistryDrivesBrowserRefresh(t *testing.T) {
	r := NewRegistry()
	sess := gcitest.NewSession().Respond("symbolList do:", "Globals\n")
	entry := r.Add("a", sess)
	tree := browser.NewTree(r, nil, browser.TreeOptions{})

	refreshed := 0
	tree.Subscribe(func(browser.Node) { refreshed++ })
	if got := tree.Children(context.Background(), tree.Root(entry.ID)); len(got) != 1 {
		t.Fatalf("expected one dictionary, got %d", len(got))
	}
	if err := r.Select(entry.ID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if refreshed != 1 {
		t.Fatalf("expected selection to refresh the tree, got %d", refreshed)
	}
}
