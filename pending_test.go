package jobsys

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PendingListTestSuite struct {
	suite.Suite
}

func TestPendingListTestSuite(t *testing.T) {
	suite.Run(t, new(PendingListTestSuite))
}

func (ts *PendingListTestSuite) recordWithDeps(name string, priority Priority, deps ...Handle) *jobRecord {
	rec := newJobRecord(1, WorkFunc{JobName: name}, newDependencySet(deps), priority)
	rec.submittedAtMicros.Store(nowMicros())
	return rec
}

func (ts *PendingListTestSuite) TestPromoteReadySkipsUnsatisfied() {
	p := newPendingList()
	ready := ts.recordWithDeps("ready", Normal)
	blocked := ts.recordWithDeps("blocked", Normal, Handle(99))
	p.add(ready)
	p.add(blocked)

	promoted := p.promoteReady(func(h Handle) bool { return false })
	ts.Len(promoted, 1)
	ts.Equal("ready", promoted[0].name)
	ts.Equal(1, p.len())
}

func (ts *PendingListTestSuite) TestPromoteOrdersByPriorityThenFIFO() {
	p := newPendingList()
	low := ts.recordWithDeps("low", Low)
	high := ts.recordWithDeps("high", High)
	critical := ts.recordWithDeps("critical", Critical)
	later := ts.recordWithDeps("normal_later", Normal)
	earlier := ts.recordWithDeps("normal_earlier", Normal)
	earlier.submittedAtMicros.Store(later.submittedAtMicros.Load() - 1)
	p.add(low)
	p.add(later)
	p.add(high)
	p.add(earlier)
	p.add(critical)

	promoted := p.promoteReady(func(Handle) bool { return true })
	names := make([]string, len(promoted))
	for i, rec := range promoted {
		names[i] = rec.name
	}
	ts.Equal([]string{"critical", "high", "normal_earlier", "normal_later", "low"}, names)
}

func (ts *PendingListTestSuite) TestFairnessSnapshotCounts() {
	p := newPendingList()
	p.add(ts.recordWithDeps("a", Normal))
	p.add(ts.recordWithDeps("b", Normal))
	p.add(ts.recordWithDeps("c", High))

	snap := p.fairnessSnapshot()
	ts.Equal(2, snap[Normal])
	ts.Equal(1, snap[High])
}
