package dedup

import (
	"sync/atomic"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/busstate-go/pkg/lruset"
)

// Fingerprint is the 128-bit murmur3 hash of a message id.
type Fingerprint struct {
	Hi, Lo uint64
}

// FingerprintOf hashes id.
func FingerprintOf(id string) Fingerprint {
	hi, lo := murmur3.Sum128([]byte(id))
	return Fingerprint{Hi: hi, Lo: lo}
}

// Window is a bounded set of recently seen message ids.
type Window struct {
	seen      *lruset.LeastRecentlyUsedSet[Fingerprint]
	evictions atomic.Uint64
}

// NewWindow creates a window holding up to capacity ids. A capacity <= 0
// selects lruset.DefaultCapacity.
func NewWindow(capacity int) *Window {
	w := &Window{}
	w.seen = lruset.New(
		lruset.WithCapacity[Fingerprint](capacity),
		lruset.WithEvictionHandler(func(Fingerprint) {
			w.evictions.Add(1)
		}),
	)
	return w
}

// Seen reports whether id is in the window.
func (w *Window) Seen(id string) bool {
	if id == "" {
		return false
	}
	return w.seen.Contains(FingerprintOf(id))
}

// Mark records id. Marking an id already in the window keeps its position.
func (w *Window) Mark(id string) {
	if id == "" {
		return
	}
	w.seen.Add(FingerprintOf(id))
}

// CheckAndMark records id and reports whether it was already present. The
// test and the insert happen in one write scope, so of several concurrent
// deliveries of the same id exactly one observes false.
func (w *Window) CheckAndMark(id string) (duplicate bool) {
	if id == "" {
		return false
	}
	fp := FingerprintOf(id)
	w.seen.Write(func(wr lruset.Writer[Fingerprint]) {
		duplicate = !wr.Add(fp)
	})
	return duplicate
}

// Forget removes id from the window.
func (w *Window) Forget(id string) {
	if id == "" {
		return
	}
	w.seen.Remove(FingerprintOf(id))
}

// Len returns the number of ids in the window.
func (w *Window) Len() int {
	return w.seen.Len()
}

// Capacity returns the maximum number of ids.
func (w *Window) Capacity() int {
	return w.seen.Capacity()
}

// Evictions returns how many ids have been pushed out of the window.
func (w *Window) Evictions() uint64 {
	return w.evictions.Load()
}
