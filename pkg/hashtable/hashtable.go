package hashtable

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Entry is a key-value pair returned by Items.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Reader is the read-only view handed to a Read scope. Range, Keys and
// Items enumerate in an unspecified order that stays the same for every
// call within one scope.
type Reader[K comparable, V any] interface {
	// TryGet returns the value stored under key and whether it was present.
	TryGet(key K) (V, bool)
	// Len returns the number of entries.
	Len() int
	// Range calls fn for every entry until fn returns false.
	Range(fn func(key K, value V) bool)
	// Keys returns all keys.
	Keys() []K
	// Items returns all entries.
	Items() []Entry[K, V]
}

// Writer is the mutable view handed to a Write scope.
type Writer[K comparable, V any] interface {
	Reader[K, V]
	// Set inserts or overwrites the value stored under key.
	Set(key K, value V)
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key K)
	// Clear removes every entry.
	Clear()
}

// Hashtable is a map guarded by a reader/writer lock and accessed only
// through Read and Write scopes.
type Hashtable[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// New creates an empty table.
func New[K comparable, V any]() *Hashtable[K, V] {
	return &Hashtable[K, V]{
		items: make(map[K]V),
	}
}

// Read runs fn with shared access to the table.
func (h *Hashtable[K, V]) Read(fn func(r Reader[K, V])) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	v := &view[K, V]{items: h.items}
	defer v.close()
	fn(v)
}

// Write runs fn with exclusive access to the table.
func (h *Hashtable[K, V]) Write(fn func(w Writer[K, V])) {
	h.mu.Lock()
	defer h.mu.Unlock()

	v := &view[K, V]{items: h.items}
	defer func() {
		// Clear swaps the backing map; keep the table pointing at it.
		h.items = v.items
		v.close()
	}()
	fn(v)
}

// Get looks up a single key in its own read scope.
func (h *Hashtable[K, V]) Get(key K) (value V, ok bool) {
	h.Read(func(r Reader[K, V]) {
		value, ok = r.TryGet(key)
	})
	return value, ok
}

// Len returns the number of entries.
func (h *Hashtable[K, V]) Len() int {
	var n int
	h.Read(func(r Reader[K, V]) {
		n = r.Len()
	})
	return n
}

// GetOrAdd returns the value stored under key, calling fill to produce and
// store one on a miss. fill runs outside any scope, so two goroutines missing
// the same key may both call it. The first value written wins and is the one
// returned to both; loaded reports whether the returned value came from the
// table rather than from this caller's fill.
func (h *Hashtable[K, V]) GetOrAdd(key K, fill func() V) (value V, loaded bool) {
	if value, ok := h.Get(key); ok {
		return value, true
	}

	fresh := fill()

	h.Write(func(w Writer[K, V]) {
		if existing, ok := w.TryGet(key); ok {
			value, loaded = existing, true
			return
		}
		w.Set(key, fresh)
		value = fresh
	})
	return value, loaded
}

const staleViewMsg = "hashtable: view used outside of its scope"

// view implements Reader and Writer over the table's map for one scope.
type view[K comparable, V any] struct {
	items  map[K]V
	order  []K // enumeration order, fixed on first use
	closed atomic.Bool
}

func (v *view[K, V]) close() {
	v.closed.Store(true)
}

func (v *view[K, V]) check() {
	if v.closed.Load() {
		panic(staleViewMsg)
	}
}

func (v *view[K, V]) TryGet(key K) (V, bool) {
	v.check()
	val, ok := v.items[key]
	return val, ok
}

func (v *view[K, V]) Len() int {
	v.check()
	return len(v.items)
}

func (v *view[K, V]) ordered() []K {
	if v.order == nil {
		v.order = make([]K, 0, len(v.items))
		for k := range v.items {
			v.order = append(v.order, k)
		}
	}
	return v.order
}

func (v *view[K, V]) Range(fn func(key K, value V) bool) {
	v.check()
	for _, k := range v.ordered() {
		// fn may remove entries when called from a Write scope.
		val, ok := v.items[k]
		if !ok {
			continue
		}
		if !fn(k, val) {
			return
		}
	}
}

func (v *view[K, V]) Keys() []K {
	v.check()
	return slices.Clone(v.ordered())
}

func (v *view[K, V]) Items() []Entry[K, V] {
	v.check()
	keys := v.ordered()
	items := make([]Entry[K, V], 0, len(keys))
	for _, k := range keys {
		items = append(items, Entry[K, V]{Key: k, Value: v.items[k]})
	}
	return items
}

func (v *view[K, V]) Set(key K, value V) {
	v.check()
	if _, exists := v.items[key]; !exists && v.order != nil {
		v.order = append(v.order, key)
	}
	v.items[key] = value
}

func (v *view[K, V]) Remove(key K) {
	v.check()
	if _, exists := v.items[key]; !exists {
		return
	}
	delete(v.items, key)
	if v.order != nil {
		// Copy so that a Range in progress keeps its own slice.
		v.order = slices.DeleteFunc(slices.Clone(v.order), func(k K) bool { return k == key })
	}
}

func (v *view[K, V]) Clear() {
	v.check()
	v.items = make(map[K]V)
	v.order = nil
}
