package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/busstate-go/internal/core/domain"
	"github.com/yndnr/busstate-go/internal/core/saga"
)

// Counts are the preload sizes used by the scaled benchmarks.
var Counts = []int{1000, 10000, 100000}

// SmallCounts for quick benchmarks.
var SmallCounts = []int{1000, 10000}

func prefillSagas(ctx context.Context, b *testing.B, p *saga.Persister, count int) []domain.SagaID {
	b.Helper()
	ids := make([]domain.SagaID, count)
	for i := range ids {
		ids[i] = domain.NewSagaID()
		if err := p.Save(ctx, &saga.Entry{ID: ids[i], Type: "bench", State: []byte("{}")}, 0); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
	}
	return ids
}

func messageIDs(count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = domain.MustNewMessageID()
	}
	return ids
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
}

func runWithCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("n_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
