package saga

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yndnr/busstate-go/internal/core/domain"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/pkg/hashtable"
)

// Entry is the stored state of one saga instance.
type Entry struct {
	ID        domain.SagaID
	Type      string
	State     []byte
	Version   uint64
	UpdatedAt time.Time
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	c := *e
	c.State = bytes.Clone(e.State)
	return &c
}

// Persister stores saga state keyed by saga id.
type Persister struct {
	sagas *hashtable.Hashtable[domain.SagaID, *Entry]
	now   func() time.Time
}

// Option configures a Persister.
type Option func(*Persister)

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(p *Persister) {
		p.now = now
	}
}

// NewPersister creates an empty persister.
func NewPersister(opts ...Option) *Persister {
	p := &Persister{
		sagas: hashtable.New[domain.SagaID, *Entry](),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Get returns a copy of the state stored for id.
func (p *Persister) Get(ctx context.Context, id domain.SagaID) (*Entry, error) {
	if err := domain.ValidateSagaID(id); err != nil {
		return nil, err
	}

	var entry *Entry
	p.sagas.Read(func(r hashtable.Reader[domain.SagaID, *Entry]) {
		if e, ok := r.TryGet(id); ok {
			entry = e.Clone()
		}
	})

	if entry == nil {
		logger.L(logger.WithSagaID(ctx, id)).Debug("saga not found")
		return nil, domain.ErrSagaNotFound.WithDetails(id.String())
	}
	return entry, nil
}

// Save stores entry if the stored version equals expectedVersion. An
// expectedVersion of 0 creates the saga and fails if it already exists.
// On success entry.Version and entry.UpdatedAt reflect the stored copy.
func (p *Persister) Save(ctx context.Context, entry *Entry, expectedVersion uint64) error {
	if err := domain.ValidateSagaID(entry.ID); err != nil {
		return err
	}
	if len(entry.State) == 0 {
		return domain.ErrSagaStateEmpty.WithDetails(entry.ID.String())
	}

	ctx = logger.WithSagaID(ctx, entry.ID)

	stored := entry.Clone()
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = p.now()

	var conflict error
	p.sagas.Write(func(w hashtable.Writer[domain.SagaID, *Entry]) {
		var current uint64
		if existing, ok := w.TryGet(entry.ID); ok {
			current = existing.Version
		}
		if current != expectedVersion {
			conflict = domain.ErrSagaVersionConflict.WithDetails(versionDetails(expectedVersion, current))
			return
		}
		w.Set(entry.ID, stored)
	})
	if conflict != nil {
		logger.L(ctx).Debug("saga save rejected",
			"expected_version", expectedVersion,
			"error", conflict)
		return conflict
	}

	entry.Version = stored.Version
	entry.UpdatedAt = stored.UpdatedAt

	logger.L(ctx).Debug("saga saved",
		"saga_type", entry.Type,
		"version", stored.Version,
		"state", stored.State)
	return nil
}

// Complete removes the saga. Completing an unknown saga is a no-op.
func (p *Persister) Complete(ctx context.Context, id domain.SagaID) error {
	if err := domain.ValidateSagaID(id); err != nil {
		return err
	}

	var existed bool
	p.sagas.Write(func(w hashtable.Writer[domain.SagaID, *Entry]) {
		_, existed = w.TryGet(id)
		w.Remove(id)
	})

	logger.L(logger.WithSagaID(ctx, id)).Debug("saga completed", "existed", existed)
	return nil
}

// List returns copies of all stored sagas ordered by id.
func (p *Persister) List(ctx context.Context) []*Entry {
	var entries []*Entry
	p.sagas.Read(func(r hashtable.Reader[domain.SagaID, *Entry]) {
		entries = make([]*Entry, 0, r.Len())
		r.Range(func(_ domain.SagaID, e *Entry) bool {
			entries = append(entries, e.Clone())
			return true
		})
	})

	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].ID[:], entries[j].ID[:]) < 0
	})
	return entries
}

// Count returns the number of stored sagas.
func (p *Persister) Count() int {
	return p.sagas.Len()
}

func versionDetails(expected, current uint64) string {
	switch {
	case current == 0:
		return fmt.Sprintf("saga does not exist, expected version %d", expected)
	case expected == 0:
		return fmt.Sprintf("saga already exists at version %d", current)
	default:
		return fmt.Sprintf("expected version %d, stored version %d", expected, current)
	}
}
