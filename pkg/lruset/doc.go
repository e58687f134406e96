// Package lruset provides a bounded set that evicts its oldest insertions.
//
// Despite the name, recency is insertion recency only: looking an element up
// never protects it from eviction, and adding an element that is already
// present does not move it. Once the set holds Capacity elements, each new
// insertion pushes out the element that was inserted earliest.
//
// Usage:
//
//	seen := lruset.New(lruset.WithCapacity[string](1000))
//	seen.Write(func(w lruset.Writer[string]) {
//		if !w.Contains(id) {
//			w.Add(id)
//		}
//	})
//
// Thread Safety:
//
// Access follows the same scoped reader/writer discipline as package
// hashtable. Read scopes share the lock, Write scopes hold it exclusively,
// and views must not be kept past the end of their scope.
package lruset
