package soak

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/busstate-go/internal/telemetry/logger"
	"github.com/yndnr/busstate-go/internal/telemetry/metric"
	"github.com/yndnr/busstate-go/pkg/lruset"
)

func newComponents() Components {
	return NewComponents(lruset.DefaultCapacity, lruset.DefaultCapacity)
}

func TestNewRunner_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		c    Components
	}{
		{"no workers", Config{Workers: 0, OpsPerWorker: 1}, newComponents()},
		{"no ops", Config{Workers: 1, OpsPerWorker: 0}, newComponents()},
		{"missing components", Config{Workers: 1, OpsPerWorker: 1}, Components{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRunner(tt.cfg, tt.c); err == nil {
				t.Error("NewRunner() expected error")
			}
		})
	}
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		ops     int
	}{
		{"single worker", 1, 50},
		{"contended", 8, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newComponents()
			r, err := NewRunner(Config{Workers: tt.workers, OpsPerWorker: tt.ops}, c, WithKeepState(true))
			if err != nil {
				t.Fatalf("NewRunner() error = %v", err)
			}

			report, err := r.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			total := int64(tt.workers * tt.ops)
			if !report.Verified {
				t.Error("Verified = false")
			}
			if report.Rounds != total {
				t.Errorf("Rounds = %d, want %d", report.Rounds, total)
			}
			if report.Duplicates != total {
				t.Errorf("Duplicates = %d, want %d", report.Duplicates, total)
			}
			if report.Replays != total {
				t.Errorf("Replays = %d, want %d", report.Replays, total)
			}
			// Nine operations per round.
			if report.Operations != total*9 {
				t.Errorf("Operations = %d, want %d", report.Operations, total*9)
			}
			if report.Sagas != tt.workers {
				t.Errorf("Sagas = %d, want %d (transient sagas must be completed)", report.Sagas, tt.workers)
			}
			if report.MessageTypes != tt.workers {
				t.Errorf("MessageTypes = %d, want %d", report.MessageTypes, tt.workers)
			}
			if report.DedupEntries != int(total) {
				t.Errorf("DedupEntries = %d, want %d", report.DedupEntries, total)
			}
			if report.Formatters != 1 {
				t.Errorf("Formatters = %d, want 1", report.Formatters)
			}

			if c.Sagas.Count() != tt.workers {
				t.Errorf("state kept: Count() = %d, want %d", c.Sagas.Count(), tt.workers)
			}
		})
	}
}

func TestRunner_CleansUp(t *testing.T) {
	c := newComponents()
	r, err := NewRunner(Config{Workers: 3, OpsPerWorker: 20}, c)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() #%d error = %v", i, err)
		}
		if report.Sagas != 3 || report.MessageTypes != 3 {
			t.Errorf("Run() #%d sizes = %d sagas %d types, want 3/3", i, report.Sagas, report.MessageTypes)
		}
	}

	if n := c.Sagas.Count(); n != 0 {
		t.Errorf("Sagas.Count() = %d after cleanup, want 0", n)
	}
	if n := c.Subscriptions.Len(); n != 0 {
		t.Errorf("Subscriptions.Len() = %d after cleanup, want 0", n)
	}
}

func TestRunner_EvictingDedupWindow(t *testing.T) {
	const workers, ops = 16, 500

	// A window as large as the worker count evicts constantly, and a
	// redelivery may find its id already pushed out.
	for i := 0; i < 5; i++ {
		c := NewComponents(workers, 0)
		r, err := NewRunner(Config{Workers: workers, OpsPerWorker: ops}, c)
		if err != nil {
			t.Fatalf("NewRunner() error = %v", err)
		}

		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() #%d error = %v", i, err)
		}
		if !report.Verified {
			t.Errorf("Run() #%d Verified = false", i)
		}
		if report.DedupEvictions == 0 {
			t.Errorf("Run() #%d DedupEvictions = 0, want > 0", i)
		}
		if limit := int64(workers * ops); report.Duplicates > limit || report.Duplicates == 0 {
			t.Errorf("Run() #%d Duplicates = %d, want in (0, %d]", i, report.Duplicates, limit)
		}
	}
}

func TestRunner_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	r, err := NewRunner(Config{Workers: 2, OpsPerWorker: 10}, newComponents(), WithMetrics(reg))
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	tests := []struct {
		op   string
		want float64
	}{
		{metric.OpSagaSave, 40},
		{metric.OpSagaGet, 20},
		{metric.OpSagaComplete, 20},
		{metric.OpFormat, 20},
		{metric.OpDedupMark, 40},
		{metric.OpSubscribe, 40},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			if got := testutil.ToFloat64(reg.SoakOperations.WithLabelValues(tt.op)); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.op, got, tt.want)
			}
		})
	}
	if got := testutil.ToFloat64(reg.SoakDuplicates); got != 20 {
		t.Errorf("duplicates = %v, want 20", got)
	}
	if got := testutil.ToFloat64(reg.SoakRuns); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
}

func TestRunner_RateLimited(t *testing.T) {
	r, err := NewRunner(Config{Workers: 2, OpsPerWorker: 5, Rate: 100, Burst: 1}, newComponents())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// 10 rounds at 100/s with a burst of 1 take at least 90ms.
	if report.Duration < 80*time.Millisecond {
		t.Errorf("Duration = %v, rate limit not applied", report.Duration)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	r, err := NewRunner(Config{Workers: 2, OpsPerWorker: 1000, Rate: 50, Burst: 1}, newComponents())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := r.Run(ctx)
	if err == nil {
		t.Fatal("Run() expected error after cancellation")
	}
	if errors.Is(err, ErrVerify) {
		t.Errorf("Run() = %v, cancellation must not be reported as a verification failure", err)
	}
	if report == nil || report.Verified {
		t.Errorf("report = %+v, want unverified report", report)
	}
	if report.Rounds >= 2000 {
		t.Errorf("Rounds = %d, run did not stop early", report.Rounds)
	}
}

func TestOpsPerSecond(t *testing.T) {
	tests := []struct {
		name string
		ops  int64
		d    time.Duration
		want float64
	}{
		{"zero duration", 10, 0, 0},
		{"one second", 10, time.Second, 10},
		{"half second", 10, 500 * time.Millisecond, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := opsPerSecond(tt.ops, tt.d); got != tt.want {
				t.Errorf("opsPerSecond() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunner_LogsCarryRunID(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("logger.New() error = %v", err)
	}
	ctx := logger.WithLogger(context.Background(), log)

	r, err := NewRunner(Config{Workers: 2, OpsPerWorker: 5}, newComponents())
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	report, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) < 2 {
		t.Fatalf("got %d records, want start and finish:\n%s", len(lines), buf.String())
	}
	for _, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("invalid record %q: %v", line, err)
		}
		if rec["run_id"] != report.RunID {
			t.Errorf("record %q run_id = %v, want %s", rec["msg"], rec["run_id"], report.RunID)
		}
	}
}
