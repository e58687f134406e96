package subscription

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/yndnr/busstate-go/internal/core/domain"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/pkg/hashtable"
	"github.com/yndnr/busstate-go/pkg/lruset"
)

// Change is a subscribe or unsubscribe request.
type Change struct {
	RequestID   string
	MessageType string
	Endpoint    string
}

// Validate checks the message type and endpoint.
func (c Change) Validate() error {
	if !isToken(c.MessageType) {
		return domain.ErrMessageTypeInvalid.WithDetails(c.MessageType)
	}
	if !isToken(c.Endpoint) {
		return domain.ErrEndpointInvalid.WithDetails(logger.RedactString(c.Endpoint))
	}
	return nil
}

// Registry maps message types to their subscribed endpoints.
type Registry struct {
	subs    *hashtable.Hashtable[string, []string]
	applied *lruset.LeastRecentlyUsedSet[string]
}

// NewRegistry creates an empty registry remembering up to seenCapacity
// request ids. A seenCapacity <= 0 selects lruset.DefaultCapacity.
func NewRegistry(seenCapacity int) *Registry {
	return &Registry{
		subs:    hashtable.New[string, []string](),
		applied: lruset.New(lruset.WithCapacity[string](seenCapacity)),
	}
}

// Subscribe adds change.Endpoint to the subscribers of change.MessageType.
// applied is false when the request id was already processed.
func (r *Registry) Subscribe(ctx context.Context, change Change) (applied bool, err error) {
	return r.apply(ctx, change, "subscribe", func(endpoints []string) []string {
		i := sort.SearchStrings(endpoints, change.Endpoint)
		if i < len(endpoints) && endpoints[i] == change.Endpoint {
			return endpoints
		}
		next := make([]string, 0, len(endpoints)+1)
		next = append(next, endpoints[:i]...)
		next = append(next, change.Endpoint)
		return append(next, endpoints[i:]...)
	})
}

// Unsubscribe removes change.Endpoint from the subscribers of
// change.MessageType. applied is false when the request id was already
// processed.
func (r *Registry) Unsubscribe(ctx context.Context, change Change) (applied bool, err error) {
	return r.apply(ctx, change, "unsubscribe", func(endpoints []string) []string {
		i := sort.SearchStrings(endpoints, change.Endpoint)
		if i == len(endpoints) || endpoints[i] != change.Endpoint {
			return endpoints
		}
		next := make([]string, 0, len(endpoints)-1)
		next = append(next, endpoints[:i]...)
		return append(next, endpoints[i+1:]...)
	})
}

// apply runs one change. The replay check, the table update and the
// recording of the request id happen under the registry's write scope so
// that no reader sees the table changed without the id being recorded.
func (r *Registry) apply(ctx context.Context, change Change, op string, update func([]string) []string) (bool, error) {
	if err := change.Validate(); err != nil {
		return false, err
	}

	if change.RequestID != "" {
		ctx = logger.WithRequestID(ctx, change.RequestID)
	}
	log := logger.L(ctx).With(
		"op", op,
		"message_type", change.MessageType,
		"endpoint", change.Endpoint,
	)

	applied := true
	r.subs.Write(func(w hashtable.Writer[string, []string]) {
		if change.RequestID != "" && r.applied.Contains(change.RequestID) {
			applied = false
			return
		}

		current, _ := w.TryGet(change.MessageType)
		next := update(current)
		if len(next) == 0 {
			w.Remove(change.MessageType)
		} else {
			w.Set(change.MessageType, next)
		}

		if change.RequestID != "" {
			r.applied.Add(change.RequestID)
		}
	})

	if !applied {
		log.Debug("subscription change already applied")
		return false, nil
	}
	log.Debug("subscription change applied")
	return true, nil
}

// Subscribers returns the endpoints subscribed to msgType, sorted.
func (r *Registry) Subscribers(msgType string) []string {
	endpoints, _ := r.subs.Get(msgType)
	// Stored slices are never mutated in place; copy so callers can.
	return append([]string(nil), endpoints...)
}

// MessageTypes returns every message type with at least one subscriber.
func (r *Registry) MessageTypes() []string {
	var types []string
	r.subs.Read(func(rd hashtable.Reader[string, []string]) {
		types = rd.Keys()
	})
	sort.Strings(types)
	return types
}

// Snapshot returns a copy of the whole table.
func (r *Registry) Snapshot() map[string][]string {
	snap := make(map[string][]string)
	r.subs.Read(func(rd hashtable.Reader[string, []string]) {
		rd.Range(func(msgType string, endpoints []string) bool {
			snap[msgType] = append([]string(nil), endpoints...)
			return true
		})
	})
	return snap
}

// Len returns the number of message types with subscribers.
func (r *Registry) Len() int {
	return r.subs.Len()
}

// AppliedLen returns how many request ids are remembered.
func (r *Registry) AppliedLen() int {
	return r.applied.Len()
}

func isToken(s string) bool {
	if s == "" {
		return false
	}
	return !strings.ContainsFunc(s, unicode.IsSpace)
}
