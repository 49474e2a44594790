package jobsys

import (
	"runtime"
	"time"

	"go.uber.org/atomic"
)

// spinLock is a tiny test-and-set (CAS loop) spinlock used for the short
// critical sections spec.md §5 calls out on the pending/overflow/completed
// lists; the per-record continuation list uses a sync.Mutex instead. None of the pack's examples ship a
// reusable spinlock type to import, so this is a direct
// (go.uber.org/atomic + runtime.Gosched) implementation — see DESIGN.md.
type spinLock struct {
	held atomic.Bool
}

func (s *spinLock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spinLock) Unlock() {
	s.held.Store(false)
}

// yieldHook cooperatively yields the current goroutine, used by the worker
// idle protocol between unsuccessful pop/steal/overflow attempts.
func yieldHook() {
	runtime.Gosched()
}

// sleepMicros blocks the current goroutine for the given number of
// microseconds, used once a worker has been idle for idleYieldThreshold
// consecutive iterations (spec.md §4.5 step 5).
func sleepMicros(micros int64) {
	if micros <= 0 {
		return
	}
	time.Sleep(time.Duration(micros) * time.Microsecond)
}
