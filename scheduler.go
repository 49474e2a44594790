package jobsys

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Scheduler is the job system's entry point (C5). Construct one with
// NewScheduler, start its workers with Init, and submit work with Submit.
// There is no process-wide singleton — per spec.md §9 OQ-1, an explicit
// value passed around (or held in a package-level variable by the caller,
// if that's what they want) is the idiomatic Go rendition, not a global.
type Scheduler struct {
	config  Config
	logger  Logger
	metrics *schedulerMetrics

	jobsMu sync.RWMutex
	jobs   map[Handle]*jobRecord
	nextID atomic.Uint64

	pending   *pendingList
	overflow  *overflowQueue
	completed *completedList

	workers         []*workerThread
	placementCursor atomic.Uint64

	counters   *schedulerCounters
	activeJobs atomic.Int64

	// accepting gates Submit; it goes false the instant Shutdown is called.
	accepting atomic.Bool
	// running gates the worker loop; it only goes false once Shutdown has
	// observed ActiveJobCount reach zero, so workers keep draining already-
	// placed and newly-promoted jobs while Shutdown waits (spec.md §4.7:
	// "waits for all active jobs" happens before "stops workers").
	running atomic.Bool
}

// NewScheduler builds a Scheduler from cfg (zero-valued fields take
// DefaultConfig's values via normalize) and constructs its worker deques,
// but does not start any goroutines — call Init for that. Mirrors the
// teacher's two-phase New/Start split.
func NewScheduler(cfg Config) *Scheduler {
	cfg = cfg.normalize()

	s := &Scheduler{
		config:    cfg,
		logger:    cfg.Logger,
		metrics:   newSchedulerMetrics(cfg.MetricsRegistry),
		jobs:      make(map[Handle]*jobRecord, cfg.MaxJobs),
		pending:   newPendingList(),
		overflow:  &overflowQueue{},
		completed: newCompletedList(cfg.MaxCompletedRetained),
		counters:  newSchedulerCounters(),
	}

	s.workers = make([]*workerThread, cfg.WorkerCount)
	for i := range s.workers {
		s.workers[i] = newWorkerThread(i, s, cfg.PerWorkerQueueCapacity)
	}
	return s
}

// Init starts the worker goroutines. It is idempotent: only the first call
// has any effect, and every call (including the first) returns whether the
// scheduler is running afterward, matching the original job system's
// Init(config) → bool contract adapted to an explicit-value Scheduler
// (spec.md §4.2, SPEC_FULL.md §7 OQ-1).
func (s *Scheduler) Init() bool {
	if !s.accepting.CompareAndSwap(false, true) {
		return s.accepting.Load()
	}
	s.running.Store(true)
	s.logger.Info("scheduler starting", "workers", len(s.workers))
	for _, w := range s.workers {
		go w.run()
	}
	return true
}

// Submit enqueues work for execution once every handle in deps is
// complete (vacuously true for an empty deps). It returns InvalidHandle if
// the scheduler has not been started, or has been shut down (spec.md
// §4.3, edge case "submission when not running").
func (s *Scheduler) Submit(work Work, priority Priority, deps ...Handle) Handle {
	if !s.accepting.Load() {
		err := &schedulerError{Kind: KindSubmissionRejected, Job: work.Name()}
		s.logger.Error(err.Error(), "job", work.Name())
		return InvalidHandle
	}

	id := Handle(s.nextID.Inc())
	rec := newJobRecord(id, work, newDependencySet(deps), priority)
	rec.submittedAtMicros.Store(nowMicros())

	s.jobsMu.Lock()
	s.jobs[id] = rec
	s.jobsMu.Unlock()

	s.counters.jobsSubmitted.Inc()
	s.metrics.observeSubmit()
	s.activeJobs.Inc()
	s.metrics.setActiveJobs(int(s.activeJobs.Load()))

	if rec.deps.allComplete(s.IsComplete) {
		s.place(rec)
	} else {
		s.pending.add(rec)
	}
	return id
}

// medianDepth returns the median of depths (the upper of the two middle
// values when len(depths) is even), used by place to decide
// which workers currently carry below-average load.
func medianDepth(depths []int) int {
	if len(depths) == 0 {
		return 0
	}
	sorted := append([]int(nil), depths...)
	sort.Ints(sorted)
	return sorted[len(sorted)/2]
}

// place runs the depth-aware placement policy from spec.md §4.4: among
// workers whose current deque depth is below the running median, choose
// the numerically smallest index and push there. This is the *intended*
// behavior spec.md's Open Questions describe — not the original source's
// documented loop-index comparison bug, which this scheduler does not
// reproduce. If no below-median worker has room (or there are no workers
// at all), place falls back to a round-robin scan for any free slot, and
// finally to the overflow queue.
func (s *Scheduler) place(rec *jobRecord) {
	n := len(s.workers)
	if n == 0 {
		s.overflow.push(rec)
		s.counters.overflowPlacements.Inc()
		s.metrics.observeOverflow()
		return
	}

	depths := make([]int, n)
	for i, w := range s.workers {
		depths[i] = w.deque.size()
	}
	median := medianDepth(depths)

	for i := 0; i < n; i++ {
		if depths[i] < median && s.workers[i].deque.pushBottom(rec) {
			return
		}
	}

	start := int(s.placementCursor.Inc()) % n
	for off := 0; off < n; off++ {
		i := (start + off) % n
		if s.workers[i].deque.pushBottom(rec) {
			return
		}
	}

	s.overflow.push(rec)
	s.counters.overflowPlacements.Inc()
	s.metrics.observeOverflow()
	fallback := &schedulerError{Kind: KindQueueFullFallback, Job: rec.name}
	s.logger.Trace(fallback.Error())
}

// promotePending moves every now-ready pending job onto a worker deque (or
// overflow), returning how many it promoted. Called eagerly after every
// completion and opportunistically by idle workers and waiting callers via
// tryDrain.
func (s *Scheduler) promotePending() int {
	ready := s.pending.promoteReady(s.IsComplete)
	for _, rec := range ready {
		s.place(rec)
	}
	return len(ready)
}

// tryDrain performs dependency promotion, then at most one overflow
// dequeue → place, reporting whether either made progress. wc is accepted
// for symmetry with the worker loop's other steps but unused today.
func (s *Scheduler) tryDrain(wc *workerCounters) bool {
	if s.promotePending() > 0 {
		return true
	}
	if rec, ok := s.overflow.pop(); ok {
		s.place(rec)
		return true
	}
	return false
}

func (s *Scheduler) lookup(h Handle) *jobRecord {
	s.jobsMu.RLock()
	rec := s.jobs[h]
	s.jobsMu.RUnlock()
	return rec
}

// IsComplete reports whether h refers to a job that has finished (in any
// outcome) or is not a handle this scheduler issued. An invalid or unknown
// handle is vacuously complete, matching the original job system's
// IsComplete()/dependency semantics.
func (s *Scheduler) IsComplete(h Handle) bool {
	if !h.IsValid() {
		return true
	}
	rec := s.lookup(h)
	if rec == nil {
		return true
	}
	return rec.complete.Load()
}

// HasFailed reports whether h's job ran and returned an error from
// Execute. False for an unknown, still-running, or successfully completed
// handle.
func (s *Scheduler) HasFailed(h Handle) bool {
	rec := s.lookup(h)
	return rec != nil && rec.failed.Load()
}

// IsRunning reports whether h's job is currently executing.
func (s *Scheduler) IsRunning(h Handle) bool {
	rec := s.lookup(h)
	return rec != nil && rec.running.Load()
}

// JobState reports h's point-in-time state classification.
func (s *Scheduler) JobState(h Handle) State {
	rec := s.lookup(h)
	if rec == nil {
		return StateCompleted
	}
	return rec.state()
}

// JobTiming reports h's recorded submission/start/finish timestamps. The
// zero JobTiming is returned for an unknown handle.
func (s *Scheduler) JobTiming(h Handle) JobTiming {
	rec := s.lookup(h)
	if rec == nil {
		return JobTiming{}
	}
	return rec.timing()
}

// Cancel marks h's job cancelled. A job already running is unaffected — it
// runs to completion; a job already complete is unaffected — cancellation
// is purely advisory and only ever consulted at the instant a worker is
// about to start Execute (spec.md §4.3, "cancellation is cooperative").
// Cancel returns false only when h is unknown to this scheduler.
func (s *Scheduler) Cancel(h Handle) bool {
	rec := s.lookup(h)
	if rec == nil {
		return false
	}
	if !rec.complete.Load() {
		rec.cancelled.Store(true)
	}
	return true
}

// RegisterContinuation arranges for cont.Resume to run once h completes
// (C7, spec.md §4.6). If h is already complete, Resume runs synchronously
// before RegisterContinuation returns.
func (s *Scheduler) RegisterContinuation(h Handle, cont Continuation) {
	rec := s.lookup(h)
	if rec == nil {
		cont.Resume()
		return
	}
	registerContinuation(rec, cont)
}

// assistOnce lets any goroutine — a worker that's otherwise idle, or a
// caller blocked in WaitForJob/WaitForAll — perform one unit of useful
// scheduler work: dependency promotion, an overflow drain, or stealing and
// directly executing a job from some worker's deque (spec.md §4.4,
// "Suspension points").
func (s *Scheduler) assistOnce() bool {
	if s.tryDrain(nil) {
		return true
	}
	if rec, ok := s.stealFrom(-1, nil); ok {
		s.executeOn(rec, nil)
		return true
	}
	return false
}

func (s *Scheduler) idleBackoff(idle *int) {
	*idle++
	if *idle >= s.config.IdleYieldThreshold {
		sleepMicros(s.config.IdleSleepMicros)
	} else {
		yieldHook()
	}
}

// WaitForJob blocks the calling goroutine until h completes, assisting the
// scheduler with useful work while it waits rather than parking outright.
// A zero-cost no-op for an already-invalid/complete handle.
func (s *Scheduler) WaitForJob(h Handle) {
	if s.IsComplete(h) {
		return
	}
	idle := 0
	for !s.IsComplete(h) {
		if s.assistOnce() {
			idle = 0
			continue
		}
		s.idleBackoff(&idle)
	}
}

// TryWaitForJob blocks until h completes or timeoutMs elapses, whichever
// comes first, returning whether h was complete by the time it returned.
// While waiting it only runs dependency promotion and overflow drains; it
// never steals and executes a job inline, since that could run past the
// deadline.
func (s *Scheduler) TryWaitForJob(h Handle, timeoutMs int64) bool {
	if s.IsComplete(h) {
		return true
	}
	deadline := time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	idle := 0
	for !s.IsComplete(h) {
		if time.Now().After(deadline) {
			return false
		}
		if s.tryDrain(nil) {
			idle = 0
			continue
		}
		s.idleBackoff(&idle)
	}
	return true
}

// WaitForJobs blocks until every handle in hs is complete. A supplemented
// convenience over repeated WaitForJob calls, mirroring the original job
// system's WaitForJobs batch helper.
func (s *Scheduler) WaitForJobs(hs []Handle) {
	for _, h := range hs {
		s.WaitForJob(h)
	}
}

// WaitForAll blocks until every job submitted so far — including any
// submitted by jobs still running when WaitForAll was called — has
// completed.
func (s *Scheduler) WaitForAll() {
	idle := 0
	for s.ActiveJobCount() > 0 {
		if s.assistOnce() {
			idle = 0
			continue
		}
		s.idleBackoff(&idle)
	}
}

func (s *Scheduler) finishOne() {
	s.activeJobs.Dec()
	s.metrics.setActiveJobs(int(s.activeJobs.Load()))
}

// ActiveJobCount is the number of jobs submitted but not yet complete in
// any outcome.
func (s *Scheduler) ActiveJobCount() int64 {
	return s.activeJobs.Load()
}

// PendingCount is the number of jobs currently waiting on dependencies.
func (s *Scheduler) PendingCount() int {
	return s.pending.len()
}

// OverflowCount is the number of jobs currently parked in the overflow
// queue because every worker deque was full at Place time.
func (s *Scheduler) OverflowCount() int {
	return s.overflow.len()
}

// CompletedCount is the number of finished jobs currently retained for
// introspection (bounded by Config.MaxCompletedRetained).
func (s *Scheduler) CompletedCount() int {
	return s.completed.len()
}

// WorkerCount is the number of worker goroutines this scheduler owns.
func (s *Scheduler) WorkerCount() int {
	return len(s.workers)
}

// PerformanceStats snapshots scheduler-wide counters.
func (s *Scheduler) PerformanceStats() PerformanceStats {
	return s.counters.snapshot()
}

// PerWorkerStats snapshots every worker's counters, indexed by worker ID.
func (s *Scheduler) PerWorkerStats() []WorkerStats {
	out := make([]WorkerStats, len(s.workers))
	for i, w := range s.workers {
		out[i] = w.counters.snapshot(i)
	}
	return out
}

// FairnessStats reports how many pending jobs are waiting at each
// priority tier, mirroring the teacher's priority-queue fairness
// introspection.
func (s *Scheduler) FairnessStats() map[Priority]int {
	return s.pending.fairnessSnapshot()
}

// Shutdown stops accepting new work effects (Submit starts returning
// InvalidHandle), waits for already-active jobs to drain, then signals
// every worker goroutine to exit and waits up to 5 seconds total for them
// to do so. Safe to call more than once; the second call is a no-op.
func (s *Scheduler) Shutdown() {
	if !s.accepting.CompareAndSwap(true, false) {
		return
	}
	s.logger.Info("scheduler shutting down", "active_jobs", s.ActiveJobCount())

	s.WaitForAll()
	s.running.Store(false)

	deadline := time.Now().Add(5 * time.Second)
	for _, w := range s.workers {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.logger.Warning("worker did not stop before shutdown deadline", "worker", w.id)
			continue
		}
		select {
		case <-w.done:
		case <-time.After(remaining):
			s.logger.Warning("worker did not stop before shutdown deadline", "worker", w.id)
		}
	}
}
