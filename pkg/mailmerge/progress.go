package mailmerge

import (
	"sync"
	"sync/atomic"
)

// Progress is a snapshot of a running merge.
type Progress struct {
	Completed int
	Total     int
}

// Percent returns Completed as a percentage of Total.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		return 100
	}
	return p.Completed * 100 / p.Total
}

// ProgressReporter receives progress updates. Report may be called from
// several goroutines, but never concurrently and never with a decreasing
// Completed value.
type ProgressReporter interface {
	Report(Progress)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(Progress)

func (f ProgressFunc) Report(p Progress) {
	f(p)
}

// NopProgress discards all updates.
var NopProgress ProgressReporter = ProgressFunc(func(Progress) {})

// progressTracker counts completed rows for one run and forwards the counts
// to a reporter in increasing order.
type progressTracker struct {
	sink      ProgressReporter
	total     int
	completed atomic.Int64

	mu        sync.Mutex
	published int
}

func newProgressTracker(sink ProgressReporter, total int) *progressTracker {
	if sink == nil {
		sink = NopProgress
	}
	return &progressTracker{sink: sink, total: total}
}

// start publishes the initial 0/total.
func (p *progressTracker) start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = 0
	p.sink.Report(Progress{Completed: 0, Total: p.total})
}

// advance marks one row as done.
func (p *progressTracker) advance() {
	n := int(p.completed.Add(1))

	p.mu.Lock()
	defer p.mu.Unlock()
	// A slower goroutine may arrive after a larger count was published.
	if n <= p.published {
		return
	}
	p.published = n
	p.sink.Report(Progress{Completed: n, Total: p.total})
}

func (p *progressTracker) count() int {
	return int(p.completed.Load())
}
