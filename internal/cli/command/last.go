package command

import (
	"sync"

	"github.com/yndnr/busstate-go/internal/soak"
)

// lastReport holds the most recent soak report for /debug/state.
type lastReport struct {
	mu     sync.RWMutex
	report *soak.Report
}

func newLastReport() *lastReport {
	return &lastReport{}
}

func (l *lastReport) set(r *soak.Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report = r
}

func (l *lastReport) get() *soak.Report {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.report
}
