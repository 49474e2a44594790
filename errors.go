package jobsys

import "fmt"

// ErrorKind classifies the internal error taxonomy from spec.md §7. None
// of these are returned to submitters as Go errors — spec.md's propagation
// policy is that submitter-side APIs return structured values (an invalid
// Handle, a bool) rather than throwing. ErrorKind exists so the Logger
// channel can report a structured field instead of an ad-hoc string.
type ErrorKind int

const (
	// KindSubmissionRejected: scheduler not running, or invalid config.
	KindSubmissionRejected ErrorKind = iota
	// KindQueueFullFallback: all worker deques full at Place time; not an
	// error surfaced anywhere, just a Trace-level diagnostic.
	KindQueueFullFallback
	// KindUserWorkFailure: Work.Execute returned an error.
	KindUserWorkFailure
	// KindCancelledBeforeStart: a cancelled job was consumed as a no-op.
	KindCancelledBeforeStart
	// KindTimeout: TryWaitForJob's deadline elapsed.
	KindTimeout
	// KindInvariantViolation: an internal invariant didn't hold.
	KindInvariantViolation
)

func (k ErrorKind) String() string {
	switch k {
	case KindSubmissionRejected:
		return "SubmissionRejected"
	case KindQueueFullFallback:
		return "QueueFullFallback"
	case KindUserWorkFailure:
		return "UserWorkFailure"
	case KindCancelledBeforeStart:
		return "CancelledBeforeStart"
	case KindTimeout:
		return "Timeout"
	case KindInvariantViolation:
		return "InvariantViolation"
	default:
		return "Unknown"
	}
}

// schedulerError wraps an ErrorKind with context, used only internally for
// logging — it is never returned across the public surface.
type schedulerError struct {
	Kind ErrorKind
	Job  string
	Err  error
}

func (e *schedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (job=%s): %v", e.Kind, e.Job, e.Err)
	}
	return fmt.Sprintf("%s (job=%s)", e.Kind, e.Job)
}

func (e *schedulerError) Unwrap() error { return e.Err }
