package query

import (
	"sort"
	"strconv"
	"strings"
)

type DictionaryEntry struct {
	IsClass  bool
	Category string
	Name     string
}

type EnvironmentEntry struct {
	IsMeta      bool
	Environment int
	Category    string
	// Selector is empty for a category without methods.
	Selector string
}

type MethodRef struct {
	Dictionary string
	ClassName  string
	IsMeta     bool
	Selector   string
	Category   string
}

type MethodList struct {
	Methods []MethodRef
	// Truncated is set when the remote serializer hit MethodListLimit;
	// Total then holds the number of methods before the cut.
	Truncated bool
	Total     int
}

type HierarchyKind string

const (
	HierarchySuperclass HierarchyKind = "superclass"
	HierarchyTarget     HierarchyKind = "target"
	HierarchySubclass   HierarchyKind = "subclass"
)

type HierarchyEntry struct {
	Dictionary string
	ClassName  string
	Kind       HierarchyKind
}

type DictionaryRef struct {
	Index int
	Name  string
}

// decodeStats counts lines a decoder rejected.
type decodeStats struct {
	Dropped int
}

// splitLines splits on newline and drops empty lines.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitRecords splits each line on tab and drops lines with fewer than
// minFields fields.
func splitRecords(text string, minFields int, stats *decodeStats) [][]string {
	lines := splitLines(text)
	out := make([][]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		if len(fields) < minFields {
			stats.Dropped++
			continue
		}
		out = append(out, fields)
	}
	return out
}

// parseInt rejects anything but a base-10 integer. Callers drop the whole
// line on failure.
func parseInt(field string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(field))
	if err != nil {
		return 0, false
	}
	return n, true
}

func decodeNames(text string) []string {
	return splitLines(text)
}

func decodeDictionaryEntries(text string, stats *decodeStats) []DictionaryEntry {
	records := splitRecords(text, 3, stats)
	out := make([]DictionaryEntry, 0, len(records))
	for _, fields := range records {
		out = append(out, DictionaryEntry{
			IsClass:  fields[0] == "1",
			Category: fields[1],
			Name:     fields[2],
		})
	}
	return out
}

func decodeEnvironmentEntries(text string, stats *decodeStats) []EnvironmentEntry {
	records := splitRecords(text, 3, stats)
	out := make([]EnvironmentEntry, 0, len(records))
	for _, fields := range records {
		env, ok := parseInt(fields[1])
		if !ok {
			stats.Dropped++
			continue
		}
		entry := EnvironmentEntry{
			IsMeta:      fields[0] == "1",
			Environment: env,
			Category:    fields[2],
		}
		if len(fields) > 3 {
			entry.Selector = fields[3]
		}
		out = append(out, entry)
	}
	return out
}

// decodeMethodList sorts locally by class, side and selector because the
// remote serializer emits methods in organizer order.
func decodeMethodList(text string, stats *decodeStats) MethodList {
	var list MethodList
	for _, line := range splitLines(text) {
		fields := strings.Split(line, "\t")
		if fields[0] == TruncatedMarker {
			if len(fields) > 1 {
				if total, ok := parseInt(fields[1]); ok {
					list.Truncated = true
					list.Total = total
					continue
				}
			}
			stats.Dropped++
			continue
		}
		if len(fields) < 5 {
			stats.Dropped++
			continue
		}
		list.Methods = append(list.Methods, MethodRef{
			Dictionary: fields[0],
			ClassName:  fields[1],
			IsMeta:     fields[2] == "1",
			Selector:   fields[3],
			Category:   fields[4],
		})
	}
	sort.SliceStable(list.Methods, func(i, j int) bool {
		a, b := list.Methods[i], list.Methods[j]
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.IsMeta != b.IsMeta {
			return !a.IsMeta
		}
		return a.Selector < b.Selector
	})
	if !list.Truncated {
		list.Total = len(list.Methods)
	}
	return list
}

func decodeHierarchy(text string, stats *decodeStats) []HierarchyEntry {
	records := splitRecords(text, 3, stats)
	out := make([]HierarchyEntry, 0, len(records))
	for _, fields := range records {
		out = append(out, HierarchyEntry{
			Dictionary: fields[0],
			ClassName:  fields[1],
			Kind:       HierarchyKind(fields[2]),
		})
	}
	return out
}

func decodeDictionaryRefs(text string, stats *decodeStats) []DictionaryRef {
	records := splitRecords(text, 2, stats)
	out := make([]DictionaryRef, 0, len(records))
	for _, fields := range records {
		index, ok := parseInt(fields[0])
		if !ok {
			stats.Dropped++
			continue
		}
		out = append(out, DictionaryRef{Index: index, Name: fields[1]})
	}
	return out
}
