// Package registry associates per-container state with container elements.
//
// Keys are weak: an entry never keeps its container alive, and entries of
// collected containers are dropped by a runtime cleanup. A live instance
// usually references its own container though, so callers must Destroy
// instances they no longer need.
package registry

import (
	"runtime"
	"sync"
	"weak"

	"github.com/Sternrassler/pagination-go/pkg/dom"
)

// Entry is the state kept for one container.
type Entry[T any] struct {
	Initialized     bool
	Destroyed       bool
	Instance        T
	CurrentPageData []any
}

// Registry maps container elements to entries.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[weak.Pointer[dom.Element]]*Entry[T]
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[weak.Pointer[dom.Element]]*Entry[T])}
}

// Get returns a copy of the entry for el.
func (r *Registry[T]) Get(el *dom.Element) (Entry[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[weak.Make(el)]
	if !ok {
		return Entry[T]{}, false
	}
	return *e, true
}

// Update applies fn to the entry for el, creating it first when missing.
// fn runs with the registry lock held and must not call back into r.
func (r *Registry[T]) Update(el *dom.Element, fn func(*Entry[T])) {
	key := weak.Make(el)

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &Entry[T]{}
		r.entries[key] = e
		runtime.AddCleanup(el, r.remove, key)
	}
	fn(e)
}

// Len returns the number of entries, destroyed ones included.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) remove(key weak.Pointer[dom.Element]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}
