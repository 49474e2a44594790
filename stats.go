package jobsys

import (
	"time"

	"go.uber.org/atomic"
)

// emaAlpha is the smoothing factor for the moving-average job duration,
// carried over from the teacher's strategies/adaptive_strategy.go
// updateMetrics (`alpha*performance + (1-alpha)*currentPerf`), adapted here
// to track job latency instead of jobs-per-second throughput.
const emaAlpha = 0.2

// schedulerCounters holds the scheduler-wide atomic counters backing
// PerformanceStats. All fields use go.uber.org/atomic, grounded on
// other_examples/3a757aad_vishalbelsare-lindb__internal-concurrent-pool.go.go
// (see SPEC_FULL.md §4) — counters and flags are atomics only, never
// guarded by a lock, per spec.md §5.
type schedulerCounters struct {
	jobsSubmitted      atomic.Uint64
	jobsCompleted      atomic.Uint64
	jobsFailed         atomic.Uint64
	jobsCancelled      atomic.Uint64
	totalExecMicros    atomic.Uint64
	averageJobMicros   atomic.Float64
	overflowPlacements atomic.Uint64
	startTime          time.Time
}

func newSchedulerCounters() *schedulerCounters {
	return &schedulerCounters{startTime: time.Now()}
}

func (c *schedulerCounters) recordCompletion(durationMicros int64, failed bool) {
	if failed {
		c.jobsFailed.Inc()
	} else {
		c.jobsCompleted.Inc()
	}
	c.totalExecMicros.Add(uint64(durationMicros))

	for {
		old := c.averageJobMicros.Load()
		var next float64
		if old == 0 {
			next = float64(durationMicros)
		} else {
			next = emaAlpha*float64(durationMicros) + (1-emaAlpha)*old
		}
		if c.averageJobMicros.CAS(old, next) {
			break
		}
	}
}

// PerformanceStats is a point-in-time snapshot of scheduler-wide counters.
// Matches spec.md §4.7's "snapshots; no locks held past return" contract.
type PerformanceStats struct {
	JobsSubmitted        uint64
	JobsCompleted        uint64
	JobsFailed           uint64
	JobsCancelled        uint64
	TotalExecutionMicros uint64
	AverageJobMicros     float64
	OverflowPlacements   uint64
	Uptime               time.Duration
}

func (c *schedulerCounters) snapshot() PerformanceStats {
	return PerformanceStats{
		JobsSubmitted:        c.jobsSubmitted.Load(),
		JobsCompleted:        c.jobsCompleted.Load(),
		JobsFailed:           c.jobsFailed.Load(),
		JobsCancelled:        c.jobsCancelled.Load(),
		TotalExecutionMicros: c.totalExecMicros.Load(),
		AverageJobMicros:     c.averageJobMicros.Load(),
		OverflowPlacements:   c.overflowPlacements.Load(),
		Uptime:               time.Since(c.startTime),
	}
}

// workerCounters holds one worker's atomic counters, read without locks by
// the scheduler's stats query; exactness is not required, only
// monotonicity (spec.md §4.5).
type workerCounters struct {
	jobsExecuted   atomic.Uint64
	stealAttempts  atomic.Uint64
	stealSuccesses atomic.Uint64
	idleMicros     atomic.Uint64
}

// WorkerStats is a point-in-time snapshot of one worker's counters.
type WorkerStats struct {
	WorkerID       int
	JobsExecuted   uint64
	StealAttempts  uint64
	StealSuccesses uint64
	IdleMicros     uint64
}

func (w *workerCounters) snapshot(id int) WorkerStats {
	return WorkerStats{
		WorkerID:       id,
		JobsExecuted:   w.jobsExecuted.Load(),
		StealAttempts:  w.stealAttempts.Load(),
		StealSuccesses: w.stealSuccesses.Load(),
		IdleMicros:     w.idleMicros.Load(),
	}
}
