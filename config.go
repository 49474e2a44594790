package jobsys

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// VictimSelection controls how a worker orders its candidate victims when
// it has no work of its own (spec.md §4.7).
type VictimSelection int

const (
	// Randomized shuffles the victim scan order per steal attempt, the
	// default — it avoids the herd-on-worker-0 bias a fixed order creates.
	Randomized VictimSelection = iota
	// RoundRobin scans victims in index order starting just past the
	// thief's own index,
	// grounded on the teacher's round-robin distribution cursor
	// (strategies/round_robin.go) adapted to steal ordering.
	RoundRobin
)

// Config holds scheduler configuration. Zero-value fields are replaced by
// sensible defaults in DefaultConfig and by NewScheduler's clamping, the
// same pattern the teacher's NewWithConfig uses for its Config.
type Config struct {
	// WorkerCount is the number of worker goroutines. Defaults to
	// runtime.NumCPU() when <= 0.
	WorkerCount int

	// MaxJobs is a reservation hint for the job table's initial capacity.
	MaxJobs int

	// PerWorkerQueueCapacity is the bounded deque capacity per worker,
	// rounded up to a power of two. Default 1024.
	PerWorkerQueueCapacity int

	// DisableWorkStealing restricts workers to their own deque plus the
	// overflow/pending drain — workers attempt no stealTop calls (goroutines
	// blocked in WaitForJob/WaitForAll still steal while assisting). Named as a
	// disable flag (rather than spec.md §4.7's "enableWorkStealing") so the
	// zero Config, and any Config{...} literal that doesn't mention it,
	// gets stealing on by default without normalize having to distinguish
	// "unset" from "explicitly false" on a plain bool.
	DisableWorkStealing bool

	// StealVictimSelection chooses how a worker orders its steal scan.
	StealVictimSelection VictimSelection

	// IdleYieldThreshold is the number of consecutive empty
	// pop/steal/drain iterations before a worker sleeps instead of
	// yielding.
	IdleYieldThreshold int

	// IdleSleepMicros is the sleep duration once IdleYieldThreshold is
	// reached.
	IdleSleepMicros int64

	// WaitTimeoutDefaultMs is the default deadline used where callers
	// don't specify one explicitly (currently informational; every
	// TryWaitForJob call in this package takes an explicit timeout).
	WaitTimeoutDefaultMs int64

	// MaxCompletedRetained bounds the completed list's size for
	// introspection; oldest entries are dropped once exceeded. Default
	// 10000.
	MaxCompletedRetained int

	// Logger receives diagnostic output. Defaults to a no-op logger.
	Logger Logger

	// MetricsRegistry, if non-nil, causes the scheduler to register and
	// maintain Prometheus metrics mirroring PerformanceStats (see
	// metrics.go). Optional — the scheduler's own atomics-backed stats
	// always work without it.
	MetricsRegistry *prometheus.Registry
}

// DefaultConfig returns the configuration NewScheduler uses when passed a
// zero Config, matching the teacher's DefaultConfig.
func DefaultConfig() Config {
	return Config{
		WorkerCount:            runtime.NumCPU(),
		MaxJobs:                4096,
		PerWorkerQueueCapacity: 1024,
		StealVictimSelection:   Randomized,
		IdleYieldThreshold:     64,
		IdleSleepMicros:        200,
		WaitTimeoutDefaultMs:   30000,
		MaxCompletedRetained:   10000,
		Logger:                 NopLogger{},
	}
}

// normalize clamps a Config to usable values, the way the teacher's
// NewWithConfig clamps NumWorkers/BufferSize/Timeout.
func (c Config) normalize() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = runtime.NumCPU()
		if c.WorkerCount <= 0 {
			c.WorkerCount = 1
		}
	}
	if c.MaxJobs <= 0 {
		c.MaxJobs = 4096
	}
	if c.PerWorkerQueueCapacity <= 0 {
		c.PerWorkerQueueCapacity = 1024
	}
	if c.IdleYieldThreshold <= 0 {
		c.IdleYieldThreshold = 64
	}
	if c.IdleSleepMicros <= 0 {
		c.IdleSleepMicros = 200
	}
	if c.WaitTimeoutDefaultMs <= 0 {
		c.WaitTimeoutDefaultMs = 30000
	}
	if c.MaxCompletedRetained <= 0 {
		c.MaxCompletedRetained = 10000
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	return c
}

// defaultWaitTimeout returns WaitTimeoutDefaultMs as a time.Duration.
func (c Config) defaultWaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutDefaultMs) * time.Millisecond
}
