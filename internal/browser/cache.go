package browser

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"gembrowse/internal/query"
)

type dictionaryKey struct {
	sessionID int
	dictIndex int
}

// classKey includes maxEnv because an entry only covers environments
// 0..maxEnv as they were when it was loaded.
type classKey struct {
	sessionID int
	dictIndex int
	className string
	maxEnv    int
}

// EnvKey selects one method category of one side in one environment.
type EnvKey struct {
	IsMeta      bool
	Environment int
	Category    string
}

// CategoryEntry is a dictionary partitioned into class categories plus the
// names of its non-class globals. All lists are sorted and deduplicated.
type CategoryEntry struct {
	Categories map[string][]string
	Globals    []string
}

// AllClasses is the sorted union of every category's classes.
func (e *CategoryEntry) AllClasses() []string {
	var all []string
	for _, names := range e.Categories {
		all = append(all, names...)
	}
	return sortedUnique(all)
}

// EnvironmentEntry maps each side, environment and category of one class to
// its sorted selectors. Empty categories are present with no selectors.
type EnvironmentEntry struct {
	Selectors map[EnvKey][]string
}

// Cache holds decoded dictionary and class listings until the next Clear.
// Concurrent loads of the same key share one remote call.
type Cache struct {
	mu           sync.Mutex
	epoch        uint64
	categories   map[dictionaryKey]*CategoryEntry
	environments map[classKey]*EnvironmentEntry

	flight singleflight.Group
}

func NewCache() *Cache {
	return &Cache{
		categories:   map[dictionaryKey]*CategoryEntry{},
		environments: map[classKey]*EnvironmentEntry{},
	}
}

// Clear drops every entry. Loads already in flight still answer their
// callers but are not stored.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.categories = map[dictionaryKey]*CategoryEntry{}
	c.environments = map[classKey]*EnvironmentEntry{}
}

func (c *Cache) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.categories) + len(c.environments)
}

func (c *Cache) categoryEntry(ctx context.Context, key dictionaryKey, load func(context.Context) (*CategoryEntry, error)) (*CategoryEntry, error) {
	flightKey := fmt.Sprintf("dict|%d|%d", key.sessionID, key.dictIndex)
	return loadEntry(ctx, c, flightKey, key, func() map[dictionaryKey]*CategoryEntry { return c.categories }, load)
}

func (c *Cache) environmentEntry(ctx context.Context, key classKey, load func(context.Context) (*EnvironmentEntry, error)) (*EnvironmentEntry, error) {
	flightKey := fmt.Sprintf("class|%d|%d|%q|%d", key.sessionID, key.dictIndex, key.className, key.maxEnv)
	return loadEntry(ctx, c, flightKey, key, func() map[classKey]*EnvironmentEntry { return c.environments }, load)
}

// loadEntry serves key from the map returned by entries, or runs load once
// for all concurrent callers of the current epoch. entries is called with
// c.mu held. The shared load ignores cancellation of whichever caller
// started it; each caller stops waiting when its own ctx is done.
func loadEntry[K comparable, V any](ctx context.Context, c *Cache, flightKey string, key K, entries func() map[K]V, load func(context.Context) (V, error)) (V, error) {
	var zero V
	c.mu.Lock()
	if v, ok := entries()[key]; ok {
		c.mu.Unlock()
		return v, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	results := c.flight.DoChan(fmt.Sprintf("%d|%s", epoch, flightKey), func() (any, error) {
		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch {
			entries()[key] = value
		}
		c.mu.Unlock()
		return value, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

func buildCategoryEntry(entries []query.DictionaryEntry) *CategoryEntry {
	out := &CategoryEntry{Categories: map[string][]string{}}
	for _, entry := range entries {
		if !entry.IsClass {
			out.Globals = append(out.Globals, entry.Name)
			continue
		}
		category := entry.Category
		if category == "" {
			category = DefaultClassCategory
		}
		out.Categories[category] = append(out.Categories[category], entry.Name)
	}
	for category, names := range out.Categories {
		out.Categories[category] = sortedUnique(names)
	}
	out.Globals = sortedUnique(out.Globals)
	return out
}

func buildEnvironmentEntry(entries []query.EnvironmentEntry) *EnvironmentEntry {
	out := &EnvironmentEntry{Selectors: map[EnvKey][]string{}}
	for _, entry := range entries {
		key := EnvKey{IsMeta: entry.IsMeta, Environment: entry.Environment, Category: entry.Category}
		selectors := out.Selectors[key]
		if entry.Selector != "" {
			selectors = append(selectors, entry.Selector)
		}
		out.Selectors[key] = selectors
	}
	for key, selectors := range out.Selectors {
		out.Selectors[key] = sortedUnique(selectors)
	}
	return out
}

func sortedUnique(values []string) []string {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
