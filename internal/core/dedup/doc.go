// Package dedup remembers recently seen message ids.
//
// A Window is a bounded lruset.LeastRecentlyUsedSet of 128-bit murmur3
// fingerprints, so memory stays fixed per entry however long the ids are.
// When the window is full the oldest fingerprint is evicted; a message
// redelivered after its id left the window is treated as new.
package dedup
