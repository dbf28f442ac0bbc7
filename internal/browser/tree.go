package browser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
	"gembrowse/internal/query"
)

var errUnknownKind = errors.New("unknown node kind")

type SessionSource interface {
	Session(id int) (gci.Session, bool)
}

// selectionSource is implemented by session sources that announce changes
// of the active session.
type selectionSource interface {
	OnSelect(fn func(sessionID int))
}

type Settings interface {
	MaxEnvironment() int
}

// StaticSettings is a fixed maximum environment.
type StaticSettings int

func (s StaticSettings) MaxEnvironment() int {
	return int(s)
}

// Notifier receives expansion failures. Children never returns them.
type Notifier interface {
	Notify(node Node, err error)
}

type NotifierFunc func(node Node, err error)

func (f NotifierFunc) Notify(node Node, err error) {
	f(node, err)
}

type TreeOptions struct {
	Cache    *Cache
	Settings Settings
	Notifier Notifier
	Logger   logging.Logger
}

type Tree struct {
	sessions SessionSource
	service  *query.Service
	cache    *Cache
	settings Settings
	notifier Notifier
	logger   logging.Logger

	mu        sync.Mutex
	observers map[int]func(Node)
	nextObs   int
}

func NewTree(sessions SessionSource, service *query.Service, opts TreeOptions) *Tree {
	if service == nil {
		service = query.NewService(nil, nil, nil)
	}
	if opts.Cache == nil {
		opts.Cache = NewCache()
	}
	if opts.Settings == nil {
		opts.Settings = StaticSettings(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	t := &Tree{
		sessions:  sessions,
		service:   service,
		cache:     opts.Cache,
		settings:  opts.Settings,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		observers: map[int]func(Node){},
	}
	if sel, ok := sessions.(selectionSource); ok {
		sel.OnSelect(func(int) { t.Refresh() })
	}
	return t
}

func (t *Tree) Root(sessionID int) Node {
	return Node{Kind: KindRoot, SessionID: sessionID}
}

func (t *Tree) Cache() *Cache {
	return t.cache
}

// Subscribe registers fn to run after every Refresh with the root node that
// must be re-queried. The returned func removes it.
func (t *Tree) Subscribe(fn func(Node)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextObs
	t.nextObs++
	t.observers[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.observers, id)
	}
}

// Refresh clears both caches and tells every observer the whole tree is stale.
func (t *Tree) Refresh() {
	t.cache.Clear()
	t.logger.Debug("browser cache cleared", logging.F("epoch", t.cache.Epoch()))
	t.mu.Lock()
	observers := make([]func(Node), 0, len(t.observers))
	for _, fn := range t.observers {
		observers = append(observers, fn)
	}
	t.mu.Unlock()
	for _, fn := range observers {
		fn(Node{Kind: KindRoot})
	}
}

// Children computes the children of node. A failed remote call is reported
// to the notifier and yields no children.
func (t *Tree) Children(ctx context.Context, node Node) []Node {
	if node.IsLeaf() {
		return nil
	}
	children, err := t.children(ctx, node)
	if err != nil {
		t.logger.Warn("expand node failed",
			logging.F("kind", node.Kind),
			logging.F("label", node.Label()),
			logging.F("error", err),
		)
		if t.notifier != nil {
			t.notifier.Notify(node, err)
		}
		return []Node{}
	}
	return children
}

func (t *Tree) children(ctx context.Context, node Node) ([]Node, error) {
	switch node.Kind {
	case KindRoot:
		return t.dictionaries(ctx, node)
	case KindDictionary:
		return t.classCategories(ctx, node)
	case KindClassCategory:
		return t.classes(ctx, node)
	case KindClass:
		return t.classChildren(node), nil
	case KindSide:
		return t.methodCategories(ctx, node)
	case KindCategory:
		return t.methods(ctx, node)
	case KindDefinition, KindComment, KindMethod, KindGlobal:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownKind, node.Kind)
	}
}

func (t *Tree) session(id int) (gci.Session, error) {
	if t.sessions == nil {
		return nil, fmt.Errorf("session %d not found", id)
	}
	sess, ok := t.sessions.Session(id)
	if !ok || sess == nil {
		return nil, fmt.Errorf("session %d not found", id)
	}
	return sess, nil
}

func (t *Tree) maxEnvironment() int {
	if n := t.settings.MaxEnvironment(); n > 0 {
		return n
	}
	return 0
}

func (t *Tree) dictionaries(ctx context.Context, node Node) ([]Node, error) {
	sess, err := t.session(node.SessionID)
	if err != nil {
		return nil, err
	}
	names, err := t.service.DictionaryNames(ctx, sess)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(names))
	for i, name := range names {
		out = append(out, Node{
			Kind:      KindDictionary,
			SessionID: node.SessionID,
			DictIndex: i + 1,
			DictName:  name,
		})
	}
	return out, nil
}

func (t *Tree) categoryEntry(ctx context.Context, node Node) (*CategoryEntry, error) {
	sess, err := t.session(node.SessionID)
	if err != nil {
		return nil, err
	}
	key := dictionaryKey{sessionID: node.SessionID, dictIndex: node.DictIndex}
	return t.cache.categoryEntry(ctx, key, func(ctx context.Context) (*CategoryEntry, error) {
		entries, err := t.service.DictionaryEntries(ctx, sess, node.DictIndex)
		if err != nil {
			return nil, err
		}
		return buildCategoryEntry(entries), nil
	})
}

func (t *Tree) classCategories(ctx context.Context, node Node) ([]Node, error) {
	entry, err := t.categoryEntry(ctx, node)
	if err != nil {
		return nil, err
	}
	base := Node{
		Kind:      KindClassCategory,
		SessionID: node.SessionID,
		DictIndex: node.DictIndex,
		DictName:  node.DictName,
	}
	names := make([]string, 0, len(entry.Categories))
	for name := range entry.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Node, 0, len(names)+2)
	all := base
	all.Sentinel = SentinelAll
	out = append(out, all)
	for _, name := range names {
		child := base
		child.ClassCategory = name
		out = append(out, child)
	}
	if len(entry.Globals) > 0 {
		globals := base
		globals.Sentinel = SentinelOtherGlobals
		out = append(out, globals)
	}
	return out, nil
}

func (t *Tree) classes(ctx context.Context, node Node) ([]Node, error) {
	entry, err := t.categoryEntry(ctx, node)
	if err != nil {
		return nil, err
	}
	if node.Sentinel == SentinelOtherGlobals {
		out := make([]Node, 0, len(entry.Globals))
		for _, name := range entry.Globals {
			out = append(out, Node{
				Kind:       KindGlobal,
				SessionID:  node.SessionID,
				DictIndex:  node.DictIndex,
				DictName:   node.DictName,
				GlobalName: name,
			})
		}
		return out, nil
	}
	var names []string
	if node.Sentinel == SentinelAll {
		names = entry.AllClasses()
	} else {
		names = entry.Categories[node.ClassCategory]
	}
	out := make([]Node, 0, len(names))
	for _, name := range names {
		out = append(out, Node{
			Kind:          KindClass,
			SessionID:     node.SessionID,
			DictIndex:     node.DictIndex,
			DictName:      node.DictName,
			ClassCategory: node.ClassCategory,
			ClassName:     name,
		})
	}
	return out, nil
}

// classChildren is Definition, Comment, then instance sides for environments
// 0..max followed by class sides for the same range.
func (t *Tree) classChildren(node Node) []Node {
	maxEnv := t.maxEnvironment()
	base := Node{
		SessionID:     node.SessionID,
		DictIndex:     node.DictIndex,
		DictName:      node.DictName,
		ClassCategory: node.ClassCategory,
		ClassName:     node.ClassName,
	}
	out := make([]Node, 0, 2+2*(maxEnv+1))
	definition := base
	definition.Kind = KindDefinition
	comment := base
	comment.Kind = KindComment
	out = append(out, definition, comment)
	for _, isMeta := range []bool{false, true} {
		for env := 0; env <= maxEnv; env++ {
			side := base
			side.Kind = KindSide
			side.IsMeta = isMeta
			side.Environment = env
			side.ShowEnvironment = maxEnv > 0
			out = append(out, side)
		}
	}
	return out
}

func (t *Tree) environmentEntry(ctx context.Context, node Node) (*EnvironmentEntry, error) {
	sess, err := t.session(node.SessionID)
	if err != nil {
		return nil, err
	}
	maxEnv := t.maxEnvironment()
	key := classKey{sessionID: node.SessionID, dictIndex: node.DictIndex, className: node.ClassName, maxEnv: maxEnv}
	return t.cache.environmentEntry(ctx, key, func(ctx context.Context) (*EnvironmentEntry, error) {
		entries, err := t.service.ClassEnvironments(ctx, sess, node.DictIndex, node.ClassName, maxEnv)
		if err != nil {
			return nil, err
		}
		return buildEnvironmentEntry(entries), nil
	})
}

func (t *Tree) sideCategories(entry *EnvironmentEntry, node Node) []string {
	var names []string
	for key := range entry.Selectors {
		if key.IsMeta == node.IsMeta && key.Environment == node.Environment {
			names = append(names, key.Category)
		}
	}
	sort.Strings(names)
	return names
}

func (t *Tree) methodCategories(ctx context.Context, node Node) ([]Node, error) {
	entry, err := t.environmentEntry(ctx, node)
	if err != nil {
		return nil, err
	}
	names := t.sideCategories(entry, node)
	base := node
	base.Kind = KindCategory
	base.Sentinel = SentinelNone
	out := make([]Node, 0, len(names)+1)
	all := base
	all.Sentinel = SentinelAll
	out = append(out, all)
	for _, name := range names {
		child := base
		child.Category = name
		out = append(out, child)
	}
	return out, nil
}

func (t *Tree) methods(ctx context.Context, node Node) ([]Node, error) {
	entry, err := t.environmentEntry(ctx, node)
	if err != nil {
		return nil, err
	}
	base := node
	base.Kind = KindMethod
	base.Sentinel = SentinelNone

	categories := []string{node.Category}
	if node.Sentinel == SentinelAll {
		categories = t.sideCategories(entry, node)
	}
	var out []Node
	for _, category := range categories {
		key := EnvKey{IsMeta: node.IsMeta, Environment: node.Environment, Category: category}
		for _, selector := range entry.Selectors[key] {
			method := base
			method.Category = category
			method.Selector = selector
			out = append(out, method)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Selector != out[j].Selector {
			return out[i].Selector < out[j].Selector
		}
		return out[i].Category < out[j].Category
	})
	if out == nil {
		out = []Node{}
	}
	return out, nil
}

// Content fetches the text behind a leaf node. Unlike Children it returns
// the failure to the caller.
func (t *Tree) Content(ctx context.Context, node Node) (string, error) {
	sess, err := t.session(node.SessionID)
	if err != nil {
		return "", err
	}
	switch node.Kind {
	case KindDefinition:
		return t.service.ClassDefinition(ctx, sess, node.DictIndex, node.ClassName)
	case KindComment:
		return t.service.ClassComment(ctx, sess, node.DictIndex, node.ClassName)
	case KindMethod:
		return t.service.MethodSource(ctx, sess, node.DictIndex, node.ClassName, node.IsMeta, node.Selector, node.Environment)
	case KindGlobal:
		return t.service.GlobalPrintString(ctx, sess, node.DictIndex, node.GlobalName)
	default:
		return "", ErrNoLocator
	}
}
