// Package saga persists saga state in memory.
//
// A saga's state is an opaque blob keyed by its correlation id. The
// persister never interprets the blob; Load and Store are typed helpers
// that encode saga data as JSON on the caller's behalf.
//
// Concurrency:
//
// Every operation is a single scope on a hashtable.Hashtable, so a save is
// atomic with respect to concurrent loads and completions. Saves use
// optimistic versioning: a writer passes the version it loaded and loses
// with ErrSagaVersionConflict if another writer got there first.
package saga
