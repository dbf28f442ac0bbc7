package session

import (
	"fmt"
	"sort"
	"sync"

	"gembrowse/internal/gci"
)

// Entry is one logged-in session known to the host.
type Entry struct {
	ID          int
	Description string
	Handle      gci.Session
}

// Registry tracks sessions and which one is active. It satisfies the
// browser's session source and announces selection changes.
type Registry struct {
	mu       sync.Mutex
	entries  map[int]Entry
	nextID   int
	active   int
	onSelect []func(sessionID int)
	onRemove []func(entry Entry)
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[int]Entry),
		nextID:  1,
	}
}

// Add registers handle under the next free id.
func (r *Registry) Add(description string, handle gci.Session) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		if _, taken := r.entries[r.nextID]; !taken {
			break
		}
		r.nextID++
	}
	entry := Entry{ID: r.nextID, Description: description, Handle: handle}
	r.entries[entry.ID] = entry
	r.nextID++
	return entry
}

// Put registers entry under its own id, replacing any previous handle.
func (r *Registry) Put(entry Entry) error {
	if entry.ID < 1 {
		return fmt.Errorf("invalid session id %d", entry.ID)
	}
	if entry.Handle == nil {
		return fmt.Errorf("session %d has no handle", entry.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = entry
	return nil
}

func (r *Registry) Remove(id int) (Entry, bool) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	if !ok {
		r.mu.Unlock()
		return Entry{}, false
	}
	delete(r.entries, id)
	deselected := r.active == id
	if deselected {
		r.active = 0
	}
	removeListeners := append([]func(Entry){}, r.onRemove...)
	selectListeners := append([]func(int){}, r.onSelect...)
	r.mu.Unlock()

	for _, fn := range removeListeners {
		fn(entry)
	}
	if deselected {
		for _, fn := range selectListeners {
			fn(0)
		}
	}
	return entry, true
}

func (r *Registry) Lookup(id int) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	return entry, ok
}

// Session returns the handle for id.
func (r *Registry) Session(id int) (gci.Session, bool) {
	entry, ok := r.Lookup(id)
	if !ok {
		return nil, false
	}
	return entry.Handle, true
}

// List returns entries ordered by id.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Select makes id the active session. Listeners run only when the
// selection actually changes.
func (r *Registry) Select(id int) error {
	r.mu.Lock()
	if _, ok := r.entries[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("session %d not found", id)
	}
	if r.active == id {
		r.mu.Unlock()
		return nil
	}
	r.active = id
	listeners := append([]func(int){}, r.onSelect...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

func (r *Registry) Active() (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == 0 {
		return Entry{}, false
	}
	entry, ok := r.entries[r.active]
	return entry, ok
}

func (r *Registry) OnSelect(fn func(sessionID int)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onSelect = append(r.onSelect, fn)
}

// OnRemove registers fn to run after an entry is removed, typically to drop
// per-session state such as resolved symbols.
func (r *Registry) OnRemove(fn func(entry Entry)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onRemove = append(r.onRemove, fn)
}
