package lruset

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is the bound used when none is configured.
const DefaultCapacity = 10_000

// Reader is the read-only view handed to a Read scope.
type Reader[T comparable] interface {
	// Contains reports whether item is in the set.
	Contains(item T) bool
	// Len returns the number of elements.
	Len() int
	// Capacity returns the maximum number of elements.
	Capacity() int
	// Items returns the elements oldest first.
	Items() []T
	// Range calls fn for each element, oldest first, until fn returns false.
	Range(fn func(item T) bool)
}

// Writer is the mutable view handed to a Write scope.
type Writer[T comparable] interface {
	Reader[T]
	// Add inserts item if absent, evicting the oldest elements while the
	// set is over capacity. It reports whether item was inserted.
	Add(item T) bool
	// Remove deletes item and forgets its insertion position. It reports
	// whether item was present.
	Remove(item T) bool
}

// LeastRecentlyUsedSet is a set bounded by capacity with oldest-first eviction.
type LeastRecentlyUsedSet[T comparable] struct {
	mu       sync.RWMutex
	capacity int
	index    map[T]*list.Element
	order    *list.List // front is oldest
	onEvict  func(T)
}

// Option configures a LeastRecentlyUsedSet.
type Option[T comparable] func(*LeastRecentlyUsedSet[T])

// WithCapacity sets the maximum number of elements. Values <= 0 select
// DefaultCapacity.
func WithCapacity[T comparable](capacity int) Option[T] {
	return func(s *LeastRecentlyUsedSet[T]) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithEvictionHandler registers fn to be called for each evicted element.
// fn runs inside the write scope and must not call back into the set.
func WithEvictionHandler[T comparable](fn func(item T)) Option[T] {
	return func(s *LeastRecentlyUsedSet[T]) {
		s.onEvict = fn
	}
}

// New creates an empty set.
func New[T comparable](opts ...Option[T]) *LeastRecentlyUsedSet[T] {
	s := &LeastRecentlyUsedSet[T]{
		capacity: DefaultCapacity,
		index:    make(map[T]*list.Element),
		order:    list.New(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Read runs fn with shared access to the set.
func (s *LeastRecentlyUsedSet[T]) Read(fn func(r Reader[T])) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := &view[T]{set: s}
	defer v.close()
	fn(v)
}

// Write runs fn with exclusive access to the set.
func (s *LeastRecentlyUsedSet[T]) Write(fn func(w Writer[T])) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &view[T]{set: s}
	defer v.close()
	fn(v)
}

// Contains reports whether item is present, in its own read scope.
func (s *LeastRecentlyUsedSet[T]) Contains(item T) bool {
	var ok bool
	s.Read(func(r Reader[T]) {
		ok = r.Contains(item)
	})
	return ok
}

// Add inserts item in its own write scope.
func (s *LeastRecentlyUsedSet[T]) Add(item T) bool {
	var added bool
	s.Write(func(w Writer[T]) {
		added = w.Add(item)
	})
	return added
}

// Remove deletes item in its own write scope.
func (s *LeastRecentlyUsedSet[T]) Remove(item T) bool {
	var removed bool
	s.Write(func(w Writer[T]) {
		removed = w.Remove(item)
	})
	return removed
}

// Len returns the number of elements.
func (s *LeastRecentlyUsedSet[T]) Len() int {
	var n int
	s.Read(func(r Reader[T]) {
		n = r.Len()
	})
	return n
}

// Capacity returns the maximum number of elements. It never changes.
func (s *LeastRecentlyUsedSet[T]) Capacity() int {
	return s.capacity
}

func (s *LeastRecentlyUsedSet[T]) add(item T) bool {
	if _, ok := s.index[item]; ok {
		return false
	}

	s.index[item] = s.order.PushBack(item)

	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		evicted := s.order.Remove(oldest).(T)
		delete(s.index, evicted)
		if s.onEvict != nil {
			s.onEvict(evicted)
		}
	}
	return true
}

func (s *LeastRecentlyUsedSet[T]) remove(item T) bool {
	e, ok := s.index[item]
	if !ok {
		return false
	}
	s.order.Remove(e)
	delete(s.index, item)
	return true
}

const staleViewMsg = "lruset: view used outside of its scope"

type view[T comparable] struct {
	set    *LeastRecentlyUsedSet[T]
	closed atomic.Bool
}

func (v *view[T]) close() {
	v.closed.Store(true)
}

func (v *view[T]) check() {
	if v.closed.Load() {
		panic(staleViewMsg)
	}
}

func (v *view[T]) Contains(item T) bool {
	v.check()
	_, ok := v.set.index[item]
	return ok
}

func (v *view[T]) Len() int {
	v.check()
	return v.set.order.Len()
}

func (v *view[T]) Capacity() int {
	v.check()
	return v.set.capacity
}

func (v *view[T]) Items() []T {
	v.check()
	items := make([]T, 0, v.set.order.Len())
	for e := v.set.order.Front(); e != nil; e = e.Next() {
		items = append(items, e.Value.(T))
	}
	return items
}

func (v *view[T]) Range(fn func(item T) bool) {
	v.check()
	for e := v.set.order.Front(); e != nil; e = e.Next() {
		if !fn(e.Value.(T)) {
			return
		}
	}
}

func (v *view[T]) Add(item T) bool {
	v.check()
	return v.set.add(item)
}

func (v *view[T]) Remove(item T) bool {
	v.check()
	return v.set.remove(item)
}
