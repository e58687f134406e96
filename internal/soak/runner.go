package soak

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/yndnr/busstate-go/internal/core/dedup"
	"github.com/yndnr/busstate-go/internal/core/domain"
	"github.com/yndnr/busstate-go/internal/core/formatter"
	"github.com/yndnr/busstate-go/internal/core/saga"
	"github.com/yndnr/busstate-go/internal/core/subscription"
	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/internal/telemetry/metric"
)

// ErrVerify is wrapped by every verification failure.
var ErrVerify = errors.New("soak: verification failed")

// Config sizes a run.
type Config struct {
	Workers      int
	OpsPerWorker int
	// Rate is rounds per second across all workers. Zero means unlimited.
	Rate  float64
	Burst int
}

// Components are the containers under test.
type Components struct {
	Sagas         *saga.Persister
	Formatters    *formatter.Cache
	Dedup         *dedup.Window
	Subscriptions *subscription.Registry
}

// NewComponents builds a fresh set of components.
func NewComponents(dedupCapacity, seenCapacity int) Components {
	return Components{
		Sagas:         saga.NewPersister(),
		Formatters:    formatter.New(),
		Dedup:         dedup.NewWindow(dedupCapacity),
		Subscriptions: subscription.NewRegistry(seenCapacity),
	}
}

// Report summarises a run.
type Report struct {
	RunID        string        `json:"run_id" yaml:"run_id"`
	Workers      int           `json:"workers" yaml:"workers"`
	OpsPerWorker int           `json:"ops_per_worker" yaml:"ops_per_worker"`
	Rounds       int64         `json:"rounds" yaml:"rounds"`
	Operations   int64         `json:"operations" yaml:"operations"`
	Duplicates   int64         `json:"duplicates" yaml:"duplicates"`
	Replays      int64         `json:"replays" yaml:"replays"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	OpsPerSecond float64       `json:"ops_per_second" yaml:"ops_per_second"`

	// Sizes observed after the rounds, before the run's keys are cleaned up.
	Sagas          int    `json:"sagas" yaml:"sagas"`
	Formatters     int    `json:"formatters" yaml:"formatters"`
	DedupEntries   int    `json:"dedup_entries" yaml:"dedup_entries"`
	DedupEvictions uint64 `json:"dedup_evictions" yaml:"dedup_evictions"`
	MessageTypes   int    `json:"message_types" yaml:"message_types"`

	Verified bool `json:"verified" yaml:"verified"`
}

func opsPerSecond(ops int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(ops) / d.Seconds()
}

// Runner executes soak runs against one set of components.
type Runner struct {
	cfg     Config
	c       Components
	metrics *metric.Registry
	codec   saga.Codec
	keep    bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics counts operations in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(r *Runner) {
		r.metrics = reg
	}
}

// WithKeepState leaves the run's sagas and subscriptions in place after
// verification. By default they are removed so that repeated runs against
// long-lived components do not grow them.
func WithKeepState(keep bool) Option {
	return func(r *Runner) {
		r.keep = keep
	}
}

// NewRunner creates a runner.
func NewRunner(cfg Config, c Components, opts ...Option) (*Runner, error) {
	if cfg.Workers < 1 || cfg.OpsPerWorker < 1 {
		return nil, fmt.Errorf("soak: workers and ops per worker must be positive, got %d and %d",
			cfg.Workers, cfg.OpsPerWorker)
	}
	if c.Sagas == nil || c.Formatters == nil || c.Dedup == nil || c.Subscriptions == nil {
		return nil, errors.New("soak: all components are required")
	}

	r := &Runner{
		cfg:   cfg,
		c:     c,
		codec: saga.JSONCodec{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// progress is the saga data each worker advances once per round.
type progress struct {
	Worker int `json:"worker"`
	Round  int `json:"round"`
}

// delivery is the message rendered through the formatter cache.
type delivery struct {
	MessageID string
	Worker    int
	Round     int
	Token     string
	Payload   []byte
}

type run struct {
	id      string
	sagas   []domain.SagaID
	rounds  atomic.Int64
	ops     atomic.Int64
	dups    atomic.Int64
	replays atomic.Int64
	limiter *rate.Limiter

	// evictions is the dedup window's eviction count when the run started.
	evictions uint64
}

func (r *run) messageType(worker int) string {
	return fmt.Sprintf("soak.%s.w%d", r.id, worker)
}

// Run executes one soak run. It stops early when ctx is done. The report
// is returned even when the run fails.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	st := &run{
		id:        strings.TrimPrefix(domain.MustNewMessageID(), domain.MessageIDPrefix),
		sagas:     make([]domain.SagaID, r.cfg.Workers),
		evictions: r.c.Dedup.Evictions(),
	}
	for i := range st.sagas {
		st.sagas[i] = domain.NewSagaID()
	}
	if r.cfg.Rate > 0 {
		st.limiter = rate.NewLimiter(rate.Limit(r.cfg.Rate), max(r.cfg.Burst, 1))
	}

	ctx = logger.WithRunID(ctx, st.id)
	log := logger.L(ctx)
	log.Info("soak run started",
		"workers", r.cfg.Workers,
		"ops_per_worker", r.cfg.OpsPerWorker,
		"rate", r.cfg.Rate,
	)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < r.cfg.Workers; w++ {
		g.Go(func() error {
			return r.work(gctx, st, w)
		})
	}
	err := g.Wait()

	report := &Report{
		RunID:          st.id,
		Workers:        r.cfg.Workers,
		OpsPerWorker:   r.cfg.OpsPerWorker,
		Rounds:         st.rounds.Load(),
		Operations:     st.ops.Load(),
		Duplicates:     st.dups.Load(),
		Replays:        st.replays.Load(),
		Duration:       time.Since(start),
		Sagas:          r.c.Sagas.Count(),
		Formatters:     r.c.Formatters.Len(),
		DedupEntries:   r.c.Dedup.Len(),
		DedupEvictions: r.c.Dedup.Evictions(),
		MessageTypes:   r.c.Subscriptions.Len(),
	}
	report.OpsPerSecond = opsPerSecond(report.Operations, report.Duration)

	if err == nil {
		err = r.verify(ctx, st)
		report.Verified = err == nil
	}
	if !r.keep {
		r.cleanup(ctx, st)
	}
	if r.metrics != nil {
		r.metrics.ObserveRun(report.Duration)
	}

	if err != nil {
		log.Warn("soak run failed", "error", err, "rounds", report.Rounds)
		return report, err
	}
	log.Info("soak run finished",
		"rounds", report.Rounds,
		"operations", report.Operations,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Runner) work(ctx context.Context, st *run, worker int) error {
	inst := &saga.Instance[progress]{
		ID:   st.sagas[worker],
		Type: "soak.progress",
		Data: progress{Worker: worker},
	}
	msgType := st.messageType(worker)
	// Records written on the worker's behalf carry its long-lived saga.
	ctx = logger.WithSagaID(ctx, inst.ID)

	for round := 0; round < r.cfg.OpsPerWorker; round++ {
		if st.limiter != nil {
			if err := st.limiter.Wait(ctx); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.round(ctx, st, inst, msgType, worker, round); err != nil {
			return fmt.Errorf("worker %d round %d: %w", worker, round, err)
		}
		st.rounds.Add(1)
	}
	return nil
}

func (r *Runner) round(ctx context.Context, st *run, inst *saga.Instance[progress], msgType string, worker, round int) error {
	// Long-lived saga: advance and read back.
	inst.Data.Round = round
	if err := saga.Store(ctx, r.c.Sagas, r.codec, inst); err != nil {
		return err
	}
	r.count(st, metric.OpSagaSave)

	loaded, err := saga.Load[progress](ctx, r.c.Sagas, r.codec, inst.ID)
	if err != nil {
		return err
	}
	r.count(st, metric.OpSagaGet)
	if loaded.Data.Round != round || loaded.Version != inst.Version {
		return fmt.Errorf("%w: saga %s read back round %d version %d, want %d/%d",
			ErrVerify, inst.ID, loaded.Data.Round, loaded.Version, round, inst.Version)
	}

	// Short-lived saga: create then complete.
	transient := &saga.Entry{ID: domain.NewSagaID(), Type: "soak.transient", State: []byte{byte(round)}}
	if err := r.c.Sagas.Save(ctx, transient, 0); err != nil {
		return err
	}
	r.count(st, metric.OpSagaSave)
	if err := r.c.Sagas.Complete(ctx, transient.ID); err != nil {
		return err
	}
	r.count(st, metric.OpSagaComplete)

	msgID, err := domain.NewMessageID()
	if err != nil {
		return err
	}

	rendered := r.c.Formatters.Format(delivery{
		MessageID: msgID,
		Worker:    worker,
		Round:     round,
		Token:     msgID,
		Payload:   transient.State,
	})
	r.count(st, metric.OpFormat)
	if strings.Contains(rendered, "Token: "+msgID) {
		return fmt.Errorf("%w: formatter leaked a sensitive field", ErrVerify)
	}

	// First delivery is new, the redelivery is a duplicate.
	if r.c.Dedup.CheckAndMark(msgID) {
		return fmt.Errorf("%w: fresh message %s reported as duplicate", ErrVerify, msgID)
	}
	r.count(st, metric.OpDedupMark)
	if r.c.Dedup.CheckAndMark(msgID) {
		st.dups.Add(1)
		if r.metrics != nil {
			r.metrics.IncDuplicate()
		}
	}
	r.count(st, metric.OpDedupMark)

	change := subscription.Change{
		RequestID:   msgID,
		MessageType: msgType,
		Endpoint:    fmt.Sprintf("ep-%06d", round),
	}
	applied, err := r.c.Subscriptions.Subscribe(ctx, change)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("%w: subscription %s dropped as replay", ErrVerify, msgID)
	}
	r.count(st, metric.OpSubscribe)

	// The replay is ignored unless a small seen capacity already evicted
	// the request id, in which case re-adding the endpoint is a no-op.
	applied, err = r.c.Subscriptions.Subscribe(ctx, change)
	if err != nil {
		return err
	}
	if !applied {
		st.replays.Add(1)
	}
	r.count(st, metric.OpSubscribe)

	return nil
}

func (r *Runner) count(st *run, op string) {
	st.ops.Add(1)
	if r.metrics != nil {
		r.metrics.IncOp(op)
	}
}

// verify checks that every worker's updates are all present.
func (r *Runner) verify(ctx context.Context, st *run) error {
	var errs []error
	want := uint64(r.cfg.OpsPerWorker)

	for w, id := range st.sagas {
		inst, err := saga.Load[progress](ctx, r.c.Sagas, r.codec, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: worker %d saga: %w", ErrVerify, w, err))
			continue
		}
		if inst.Version != want || inst.Data.Round != r.cfg.OpsPerWorker-1 || inst.Data.Worker != w {
			errs = append(errs, fmt.Errorf("%w: worker %d saga at version %d round %d, want %d/%d",
				ErrVerify, w, inst.Version, inst.Data.Round, want, r.cfg.OpsPerWorker-1))
		}

		if got := len(r.c.Subscriptions.Subscribers(st.messageType(w))); got != r.cfg.OpsPerWorker {
			errs = append(errs, fmt.Errorf("%w: worker %d has %d subscribers, want %d",
				ErrVerify, w, got, r.cfg.OpsPerWorker))
		}
	}

	// Once the window evicts, other workers may push a fresh id out before
	// its redelivery, so only an upper bound holds.
	wantDups := int64(r.cfg.Workers * r.cfg.OpsPerWorker)
	got := st.dups.Load()
	switch {
	case r.c.Dedup.Evictions() == st.evictions && got != wantDups:
		errs = append(errs, fmt.Errorf("%w: %d duplicates detected, want %d", ErrVerify, got, wantDups))
	case got > wantDups:
		errs = append(errs, fmt.Errorf("%w: %d duplicates detected, want at most %d", ErrVerify, got, wantDups))
	}
	return errors.Join(errs...)
}

func (r *Runner) cleanup(ctx context.Context, st *run) {
	for w, id := range st.sagas {
		_ = r.c.Sagas.Complete(ctx, id)

		msgType := st.messageType(w)
		for _, ep := range r.c.Subscriptions.Subscribers(msgType) {
			_, _ = r.c.Subscriptions.Unsubscribe(ctx, subscription.Change{
				MessageType: msgType,
				Endpoint:    ep,
			})
		}
	}
}
