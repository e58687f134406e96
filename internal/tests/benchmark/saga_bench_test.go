package benchmark

import (
	"context"
	"testing"

	"github.com/yndnr/busstate-go/internal/core/domain"
	"github.com/yndnr/busstate-go/internal/core/saga"
)

func BenchmarkSagaGet(b *testing.B) {
	runWithCounts(b, SmallCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		p := saga.NewPersister()
		ids := prefillSagas(ctx, b, p, count)

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := p.Get(ctx, ids[i%len(ids)]); err != nil {
				b.Fatalf("Get failed: %v", err)
			}
		}
	})
}

func BenchmarkSagaSave_Parallel(b *testing.B) {
	runWithCounts(b, SmallCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		p := saga.NewPersister()
		prefillSagas(ctx, b, p, count)

		b.ResetTimer()
		b.ReportAllocs()
		b.RunParallel(func(pb *testing.PB) {
			entry := &saga.Entry{ID: domain.NewSagaID(), Type: "bench", State: []byte("{}")}
			var version uint64
			for pb.Next() {
				if err := p.Save(ctx, entry, version); err != nil {
					b.Errorf("Save failed: %v", err)
					return
				}
				version = entry.Version
			}
		})
		b.StopTimer()
		reportMemory(b, "mem")
	})
}

func BenchmarkSagaList(b *testing.B) {
	runWithCounts(b, SmallCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		p := saga.NewPersister()
		prefillSagas(ctx, b, p, count)

		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if got := len(p.List(ctx)); got != count {
				b.Fatalf("List returned %d, want %d", got, count)
			}
		}
	})
}
