package jobsys

import "fmt"

// Handle is an opaque identity for a submitted job. The zero Handle is
// reserved for "invalid" (never submitted) or, equivalently, "already
// complete" — callers that hold a zero Handle can treat it as satisfied
// without looking it up.
//
// Handle is comparable and hashable on its own; it carries no reference to
// the scheduler that created it. Queries go through the scheduler that
// issued the handle (see Scheduler.IsComplete and friends).
type Handle uint64

// InvalidHandle is the zero value, returned by Submit when the scheduler
// rejects a submission.
const InvalidHandle Handle = 0

// IsValid reports whether h was returned by a successful Submit.
func (h Handle) IsValid() bool {
	return h != InvalidHandle
}

func (h Handle) String() string {
	if !h.IsValid() {
		return "Handle(invalid)"
	}
	return fmt.Sprintf("Handle(%d)", uint64(h))
}
