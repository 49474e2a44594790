package jobsys

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

// SchedulerTestSuite exercises the scenarios spec.md §8 calls out literally:
// fan-out/fan-in, deque overflow, stealing correctness, failure propagation,
// cancellation before run, and wait-with-timeout.
type SchedulerTestSuite struct {
	suite.Suite
}

func TestSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(SchedulerTestSuite))
}

func countingWork(name string, counter *atomic.Int64) WorkFunc {
	return WorkFunc{
		JobName: name,
		Fn: func() error {
			counter.Inc()
			return nil
		},
	}
}

func (ts *SchedulerTestSuite) newScheduler(cfg Config) *Scheduler {
	s := NewScheduler(cfg)
	ts.Require().True(s.Init())
	ts.T().Cleanup(s.Shutdown)
	return s
}

func (ts *SchedulerTestSuite) TestFanOutFanIn() {
	s := ts.newScheduler(Config{WorkerCount: 4})

	var ran atomic.Int64
	a := s.Submit(countingWork("A", &ran), Normal)

	bs := make([]Handle, 100)
	for i := range bs {
		bs[i] = s.Submit(countingWork(fmt.Sprintf("B_%d", i), &ran), Normal, a)
	}

	c := s.Submit(countingWork("C", &ran), Normal, bs...)

	s.WaitForJob(c)

	ts.True(s.IsComplete(c))
	ts.EqualValues(102, ran.Load())
	// C's complete flag is set before its worker decrements the active
	// count, so the count reaches 0 shortly after WaitForJob returns.
	ts.Eventually(func() bool { return s.ActiveJobCount() == 0 }, time.Second, time.Millisecond)

	aFinished := s.JobTiming(a).FinishedAt
	cFinished := s.JobTiming(c).FinishedAt
	ts.True(cFinished.After(aFinished) || cFinished.Equal(aFinished))

	var maxB time.Time
	for _, b := range bs {
		ft := s.JobTiming(b).FinishedAt
		if ft.After(maxB) {
			maxB = ft
		}
	}
	ts.False(maxB.Before(aFinished))
	ts.False(cFinished.Before(maxB))
}

func (ts *SchedulerTestSuite) TestDequeOverflow() {
	s := ts.newScheduler(Config{
		WorkerCount:            1,
		PerWorkerQueueCapacity: 8,
	})

	var ran atomic.Int64
	handles := make([]Handle, 100)
	for i := range handles {
		i := i
		handles[i] = s.Submit(WorkFunc{
			JobName: fmt.Sprintf("spin_%d", i),
			Fn: func() error {
				time.Sleep(time.Millisecond)
				ran.Inc()
				return nil
			},
		}, Normal)
	}

	s.WaitForJobs(handles)

	ts.EqualValues(100, ran.Load())
	for _, h := range handles {
		ts.True(s.IsComplete(h))
	}
	ts.Greater(s.PerformanceStats().OverflowPlacements, uint64(0))
}

func (ts *SchedulerTestSuite) TestStealingCorrectness() {
	s := ts.newScheduler(Config{
		WorkerCount:            2,
		PerWorkerQueueCapacity: 2048,
	})

	const n = 1000
	var ran atomic.Int64
	handles := make([]Handle, n)

	// Submit is called from this single goroutine; place's depth-aware
	// policy spreads the jobs across both workers' deques, so stealing
	// happens whenever one worker drains its own deque before the other.
	for i := 0; i < n; i++ {
		handles[i] = s.Submit(countingWork(fmt.Sprintf("job_%d", i), &ran), Normal)
	}

	s.WaitForJobs(handles)

	ts.EqualValues(n, ran.Load())
	for _, h := range handles {
		ts.True(s.IsComplete(h))
		ts.False(s.HasFailed(h))
	}

	stats := s.PerWorkerStats()
	ts.Len(stats, 2)
	total := stats[0].JobsExecuted + stats[1].JobsExecuted
	ts.EqualValues(n, total)
	// At least one worker did meaningful stealing work; exact 40% is not
	// asserted since scheduling timing is not deterministic in CI.
	ts.Greater(stats[0].StealSuccesses+stats[1].StealSuccesses, uint64(0))
}

func (ts *SchedulerTestSuite) TestFailurePropagation() {
	s := ts.newScheduler(Config{WorkerCount: 4})

	failing := s.Submit(WorkFunc{
		JobName: "failing",
		Fn:      func() error { return fmt.Errorf("boom") },
	}, Normal)

	var dependentRan atomic.Int64
	dependent := s.Submit(countingWork("dependent", &dependentRan), Normal, failing)

	s.WaitForJob(dependent)

	ts.True(s.HasFailed(failing))
	ts.False(s.HasFailed(dependent))
	ts.EqualValues(1, dependentRan.Load())
}

func (ts *SchedulerTestSuite) TestCancellationBeforeRun() {
	s := ts.newScheduler(Config{WorkerCount: 4})

	// gateHandle plays the role of the scenario's "sentinel held pending":
	// its dependents sit in the pending list, unplaced, until the gate
	// channel is released below.
	gate := make(chan struct{})
	gateHandle := s.Submit(WorkFunc{
		JobName: "gate",
		Fn: func() error {
			<-gate
			return nil
		},
	}, Normal)

	var invoked atomic.Int64
	handles := make([]Handle, 10)
	for i := range handles {
		handles[i] = s.Submit(WorkFunc{
			JobName: fmt.Sprintf("cancel_me_%d", i),
			Fn: func() error {
				invoked.Inc()
				return nil
			},
		}, Normal, gateHandle)
	}

	for _, h := range handles {
		ts.True(s.Cancel(h))
	}
	for _, h := range handles {
		ts.False(s.IsComplete(h))
		ts.False(s.IsRunning(h))
	}

	close(gate)
	s.WaitForJob(gateHandle)
	s.WaitForJobs(handles)

	for _, h := range handles {
		ts.True(s.IsComplete(h))
		ts.False(s.IsRunning(h))
		ts.False(s.HasFailed(h))
	}
	ts.EqualValues(0, invoked.Load())
}

func (ts *SchedulerTestSuite) TestWaitWithTimeout() {
	s := ts.newScheduler(Config{WorkerCount: 2})

	h := s.Submit(WorkFunc{
		JobName: "slow",
		Fn: func() error {
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}, Normal)

	ok := s.TryWaitForJob(h, 10)
	ts.False(ok)
	ts.False(s.IsComplete(h))

	s.WaitForJob(h)
	ts.True(s.IsComplete(h))
}

func (ts *SchedulerTestSuite) TestSingleWorkerNoDeadlock() {
	s := ts.newScheduler(Config{WorkerCount: 1, DisableWorkStealing: true})

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		h := s.Submit(countingWork(fmt.Sprintf("job_%d", i), &ran), Normal)
		wg.Add(1)
		go func(h Handle) {
			defer wg.Done()
			s.WaitForJob(h)
		}(h)
	}
	wg.Wait()
	ts.EqualValues(50, ran.Load())
}

func (ts *SchedulerTestSuite) TestSubmitWhileNotRunningIsRejected() {
	s := NewScheduler(Config{WorkerCount: 1})
	h := s.Submit(countingWork("never", &atomic.Int64{}), Normal)
	ts.False(h.IsValid())
}

func (ts *SchedulerTestSuite) TestInitIsIdempotent() {
	s := NewScheduler(Config{WorkerCount: 2})
	defer s.Shutdown()

	ts.True(s.Init())
	ts.True(s.Init())
	ts.Equal(2, s.WorkerCount())
}

func (ts *SchedulerTestSuite) TestContinuationRunsAfterCompletion() {
	s := ts.newScheduler(Config{WorkerCount: 2})

	h := s.Submit(countingWork("base", &atomic.Int64{}), Normal)

	done := make(chan struct{})
	s.RegisterContinuation(h, ContinuationFunc(func() { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("continuation never resumed")
	}
}
