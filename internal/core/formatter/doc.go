// Package formatter renders messages for diagnostics and tracing.
//
// Building a formatter walks a type with reflection once; the result is
// cached per reflect.Type in a hashtable.Hashtable. Lookups share the read
// lock. A miss builds the formatter outside any lock and installs it with a
// short write scope. Two goroutines racing on the same miss may both build
// one; the first to install wins and the other's result is discarded, which
// is harmless because both are equivalent.
package formatter
