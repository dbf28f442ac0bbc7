package query

import (
	"reflect"
	"testing"
)

func TestSplitLinesDropsEmpty(t *testing.T) {
	got := splitLines("Globals\n\nUserGlobals\r\n\n")
	want := []string{"Globals", "UserGlobals"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitLines = %#v, want %#v", got, want)
	}
}

func TestDecodeDictionaryEntries(t *testing.T) {
	var stats decodeStats
	got := decodeDictionaryEntries("1\tCollections\tObject\n0\t\tFoo\nbad\tline\n", &stats)
	want := []DictionaryEntry{
		{IsClass: true, Category: "Collections", Name: "Object"},
		{IsClass: false, Category: "", Name: "Foo"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %#v, want %#v", got, want)
	}
	if stats.Dropped != 1 {
		t.Fatalf("expected one dropped line, got %d", stats.Dropped)
	}
}

func TestDecodeEnvironmentEntries(t *testing.T) {
	var stats decodeStats
	text := "0\t0\taccessing\tsize\n1\t0\tinstance creation\tnew\n0\t1\tempty\t\n0\tx\taccessing\tat:\n0\t0\n"
	got := decodeEnvironmentEntries(text, &stats)
	want := []EnvironmentEntry{
		{IsMeta: false, Environment: 0, Category: "accessing", Selector: "size"},
		{IsMeta: true, Environment: 0, Category: "instance creation", Selector: "new"},
		{IsMeta: false, Environment: 1, Category: "empty", Selector: ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("entries = %#v, want %#v", got, want)
	}
	if stats.Dropped != 2 {
		t.Fatalf("expected non-numeric and short lines dropped, got %d", stats.Dropped)
	}
}

func TestDecodeMethodListSortsAndDetectsTruncation(t *testing.T) {
	var stats decodeStats
	text := "Globals\tString\t0\tsize\taccessing\n" +
		"Globals\tArray\t1\tnew:\tinstance creation\n" +
		"Globals\tArray\t0\tsize\taccessing\n" +
		"Globals\tArray\t0\tat:\taccessing\n" +
		"short\tline\n" +
		TruncatedMarker + "\t812\n"
	list := decodeMethodList(text, &stats)
	if !list.Truncated || list.Total != 812 {
		t.Fatalf("expected truncated total 812, got %v %d", list.Truncated, list.Total)
	}
	var order []string
	for _, m := range list.Methods {
		side := ""
		if m.IsMeta {
			side = " class"
		}
		order = append(order, m.ClassName+side+">>"+m.Selector)
	}
	want := []string{"Array>>at:", "Array>>size", "Array class>>new:", "String>>size"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %#v, want %#v", order, want)
	}
	if stats.Dropped != 1 {
		t.Fatalf("expected one dropped line, got %d", stats.Dropped)
	}
}

func TestDecodeMethodListWithoutTrailer(t *testing.T) {
	var stats decodeStats
	list := decodeMethodList("Globals\tObject\t0\tprintOn:\tprinting\n", &stats)
	if list.Truncated || list.Total != 1 || len(list.Methods) != 1 {
		t.Fatalf("unexpected list: %#v", list)
	}
}

func TestDecodeHierarchyKeepsRemoteOrder(t *testing.T) {
	var stats decodeStats
	got := decodeHierarchy("Globals\tObject\tsuperclass\nGlobals\tCollection\ttarget\nGlobals\tBag\tsubclass\n", &stats)
	if len(got) != 3 || got[0].ClassName != "Object" || got[1].Kind != HierarchyTarget || got[2].Kind != HierarchySubclass {
		t.Fatalf("unexpected hierarchy: %#v", got)
	}
}

func TestDecodeDictionaryRefsRejectsBadIndex(t *testing.T) {
	var stats decodeStats
	got := decodeDictionaryRefs("1\tGlobals\nNaN\tBroken\n3\tUserGlobals\n", &stats)
	want := []DictionaryRef{{Index: 1, Name: "Globals"}, {Index: 3, Name: "UserGlobals"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("refs = %#v, want %#v", got, want)
	}
	if stats.Dropped != 1 {
		t.Fatalf("expected one dropped line, got %d", stats.Dropped)
	}
}
