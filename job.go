package jobsys

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Priority is an informational scheduling hint attached to a job at
// submission time. It does not affect placement or deque ordering — see
// SPEC_FULL.md §4 — it is surfaced through FairnessStats, and used only to order Place calls among records that become eligible for
// placement in the same dependency-promotion pass.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	Critical
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "Low"
	case Normal:
		return "Normal"
	case High:
		return "High"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// Category tags a job with the engine subsystem it belongs to, for
// telemetry only. The concrete set is carried over from the original job
// system's JobCategory enum.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryRender
	CategoryPhysics
	CategoryAudio
	CategoryAnimation
	CategoryAI
	CategoryNetworking
	CategoryIO
	CategoryGameplay
	CategoryStreaming
)

func (c Category) String() string {
	switch c {
	case CategoryGeneral:
		return "General"
	case CategoryRender:
		return "Render"
	case CategoryPhysics:
		return "Physics"
	case CategoryAudio:
		return "Audio"
	case CategoryAnimation:
		return "Animation"
	case CategoryAI:
		return "AI"
	case CategoryNetworking:
		return "Networking"
	case CategoryIO:
		return "IO"
	case CategoryGameplay:
		return "Gameplay"
	case CategoryStreaming:
		return "Streaming"
	default:
		return "Unknown"
	}
}

// Work is the capability a submitted job must provide. Execute runs on a
// worker goroutine to completion; it must not block waiting on a sibling
// handle — use RegisterContinuation for that instead. A returned error
// marks the job failed without interrupting dependents (see SPEC_FULL.md
// OQ-2).
type Work interface {
	Execute() error
	Name() string
	Category() Category
}

// WorkFunc adapts a plain function to Work for simple, name-only jobs.
type WorkFunc struct {
	Fn          func() error
	JobName     string
	JobCategory Category
}

func (w WorkFunc) Execute() error     { return w.Fn() }
func (w WorkFunc) Name() string       { return w.JobName }
func (w WorkFunc) Category() Category { return w.JobCategory }

// State is a point-in-time classification of a job record, derived from its
// atomic flags. It is not stored directly — see jobRecord.state().
type State int

const (
	StateCreated State = iota
	StatePending
	StateQueued
	StateRunning
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StatePending:
		return "Pending"
	case StateQueued:
		return "Queued"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// jobRecord is the scheduler's owned state for one submitted unit of work.
// It is addressed by Handle through the scheduler's job table; callers never
// hold a *jobRecord directly.
type jobRecord struct {
	id       Handle
	work     Work
	name     string
	category Category
	priority Priority
	deps     *dependencySet

	complete  atomic.Bool
	running   atomic.Bool
	failed    atomic.Bool
	cancelled atomic.Bool

	submittedAtMicros atomic.Int64
	startedAtMicros   atomic.Int64
	finishedAtMicros  atomic.Int64

	contMu        sync.Mutex
	continuations []Continuation
}

func newJobRecord(id Handle, work Work, deps *dependencySet, priority Priority) *jobRecord {
	return &jobRecord{
		id:       id,
		work:     work,
		name:     work.Name(),
		category: work.Category(),
		priority: priority,
		deps:     deps,
	}
}

func nowMicros() int64 {
	return time.Now().UnixMicro()
}

// state computes a point-in-time classification from the atomic flags.
// Queued vs Pending is not distinguishable from the record alone (it
// depends on whether the record currently sits in a deque, the overflow
// queue, or the pending list) — callers that need that distinction use
// Scheduler introspection methods instead.
func (j *jobRecord) state() State {
	if j.complete.Load() {
		return StateCompleted
	}
	if j.running.Load() {
		return StateRunning
	}
	return StateCreated
}

// JobTiming reports the microsecond timestamps recorded for a job, mirroring
// the original job system's GetSubmissionTime/GetExecutionTime/
// GetCompletionTime handle accessors (SPEC_FULL.md §5).
type JobTiming struct {
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
}

func microsToTime(micros int64) time.Time {
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros)
}

func (j *jobRecord) timing() JobTiming {
	return JobTiming{
		SubmittedAt: microsToTime(j.submittedAtMicros.Load()),
		StartedAt:   microsToTime(j.startedAtMicros.Load()),
		FinishedAt:  microsToTime(j.finishedAtMicros.Load()),
	}
}
