package jobsys

import (
	"fmt"
	"math/rand"
)

// workerThread is one OS-scheduled goroutine owned by the Scheduler. It
// drains its own deque, then steals, then falls back to the scheduler's
// pending/overflow drain, exactly as spec.md §4.5 describes (C6).
type workerThread struct {
	id       int
	sched    *Scheduler
	deque    *boundedDeque
	counters workerCounters
	done     chan struct{}
}

func newWorkerThread(id int, sched *Scheduler, capacity int) *workerThread {
	return &workerThread{
		id:    id,
		sched: sched,
		deque: newBoundedDeque(capacity),
		done:  make(chan struct{}),
	}
}

// run is the worker loop body (spec.md §4.5). It returns once the
// scheduler's running flag goes false.
func (w *workerThread) run() {
	defer close(w.done)

	idleIterations := 0
	for w.sched.running.Load() {
		rec, ok := w.deque.popBottom()

		if !ok && !w.sched.config.DisableWorkStealing {
			rec, ok = w.sched.stealFrom(w.id, &w.counters)
		}

		if !ok {
			if w.sched.tryDrain(&w.counters) {
				idleIterations = 0
				continue
			}
		}

		if !ok {
			idleIterations++
			idleStart := nowMicros()
			if idleIterations >= w.sched.config.IdleYieldThreshold {
				sleepMicros(w.sched.config.IdleSleepMicros)
			} else {
				yieldHook()
			}
			if elapsed := nowMicros() - idleStart; elapsed > 0 {
				w.counters.idleMicros.Add(uint64(elapsed))
			}
			continue
		}

		idleIterations = 0
		w.sched.executeOn(rec, &w.counters)
	}
}

// victimOrder returns the indices workerThread thiefID should probe, in
// probe order. thiefID == -1 means "not a registered worker" (an assisting
// external goroutine from WaitForJob/WaitForAll) and every worker is a
// candidate victim.
func (s *Scheduler) victimOrder(thiefID, n int) []int {
	order := make([]int, n)
	switch s.config.StealVictimSelection {
	case RoundRobin:
		start := thiefID + 1
		for i := 0; i < n; i++ {
			order[i] = (start + i) % n
		}
	default: // Randomized
		for i := 0; i < n; i++ {
			order[i] = i
		}
		rand.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	return order
}

// stealFrom probes every other worker's deque in victim order, bumping
// wc's steal-attempt counter unconditionally per victim probed and its
// steal-success counter only on a hit (spec.md §4.5, §9 OQ-3). wc may be
// nil when the caller is an assisting non-worker goroutine.
func (s *Scheduler) stealFrom(thiefID int, wc *workerCounters) (*jobRecord, bool) {
	n := len(s.workers)
	if n == 0 || (n == 1 && thiefID >= 0) {
		return nil, false
	}
	label := fmt.Sprintf("%d", thiefID)
	for _, vid := range s.victimOrder(thiefID, n) {
		if vid == thiefID {
			continue
		}
		if wc != nil {
			wc.stealAttempts.Inc()
		}
		if rec, ok := s.workers[vid].deque.stealTop(); ok {
			if wc != nil {
				wc.stealSuccesses.Inc()
			}
			s.metrics.observeSteal(label, true)
			return rec, true
		}
		s.metrics.observeSteal(label, false)
	}
	return nil, false
}

// executeOn runs rec to completion (or, if cancelled, completes it as a
// no-op) and performs the post-completion bookkeeping spec.md §4.5
// describes: stamp finishedAt, clear running, set complete, notify
// continuations, one eager dependency-promotion pass, append to the
// completed list, bump counters. wc may be nil for assisting non-worker
// goroutines, in which case only scheduler-wide counters are updated.
func (s *Scheduler) executeOn(rec *jobRecord, wc *workerCounters) {
	if rec.cancelled.Load() {
		rec.finishedAtMicros.Store(nowMicros())
		rec.complete.Store(true)
		s.counters.jobsCancelled.Inc()
		s.metrics.observeCompletion(0, false, true)
		cancelled := &schedulerError{Kind: KindCancelledBeforeStart, Job: rec.name}
		s.logger.Debug(cancelled.Error(), "category", rec.category.String())
		notifyContinuations(rec)
		s.completed.push(rec)
		s.finishOne()
		return
	}

	rec.running.Store(true)
	rec.startedAtMicros.Store(nowMicros())

	err := runWork(rec.work)

	rec.finishedAtMicros.Store(nowMicros())
	rec.running.Store(false)

	durationMicros := rec.finishedAtMicros.Load() - rec.startedAtMicros.Load()
	if durationMicros < 0 {
		durationMicros = 0
	}

	if err != nil {
		rec.failed.Store(true)
		failure := &schedulerError{Kind: KindUserWorkFailure, Job: rec.name, Err: err}
		s.logger.Error(failure.Error(), "category", rec.category.String())
	}
	rec.complete.Store(true)
	notifyContinuations(rec)

	s.counters.recordCompletion(durationMicros, err != nil)
	s.metrics.observeCompletion(durationMicros, err != nil, false)
	if wc != nil {
		wc.jobsExecuted.Inc()
	}

	s.completed.push(rec)
	s.promotePending()
	s.finishOne()
}

// runWork invokes work.Execute, converting a panic into a failure the same
// way spec.md §7's UserWorkFailure taxonomy treats a thrown error — the
// worker goroutine must survive a misbehaving job.
func runWork(work Work) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job %q: %v", work.Name(), r)
		}
	}()
	return work.Execute()
}
