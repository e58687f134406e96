// Package hashtable provides a concurrent keyed store with scoped access.
//
// Callers never lock anything themselves. They hand a function to Read or
// Write and receive a view of the table for the duration of that call:
//
//	t := hashtable.New[string, int]()
//	t.Write(func(w hashtable.Writer[string, int]) {
//		w.Set("a", 5)
//		w.Set("b", 7)
//		w.Remove("c")
//	})
//	t.Read(func(r hashtable.Reader[string, int]) {
//		v, ok := r.TryGet("a")
//		_ = v
//		_ = ok
//	})
//
// Thread Safety:
//
// Any number of Read scopes run concurrently. A Write scope runs alone: it
// excludes other writers and all readers, so a multi-step mutation is never
// observed half done. The lock is released on every exit path, including a
// panic raised by the callback.
//
// A view must not outlive its scope. Using one after the callback returned
// panics.
package hashtable
