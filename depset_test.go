package jobsys

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DepSetTestSuite struct {
	suite.Suite
}

func TestDepSetTestSuite(t *testing.T) {
	suite.Run(t, new(DepSetTestSuite))
}

func (ts *DepSetTestSuite) TestEmptySetIsVacuouslyComplete() {
	d := newDependencySet(nil)
	ts.True(d.isEmpty())
	ts.True(d.allComplete(func(Handle) bool { return false }))
}

func (ts *DepSetTestSuite) TestInvalidHandlesAreSkipped() {
	d := newDependencySet([]Handle{InvalidHandle, InvalidHandle})
	ts.True(d.isEmpty())
}

func (ts *DepSetTestSuite) TestInlineCapacity() {
	handles := []Handle{1, 2, 3, 4}
	d := newDependencySet(handles)
	ts.False(d.usingHeap)
	ts.Equal(4, d.count)
	ts.ElementsMatch(handles, d.handles())
}

func (ts *DepSetTestSuite) TestOverflowPromotesToHeap() {
	handles := []Handle{1, 2, 3, 4, 5, 6}
	d := newDependencySet(handles)
	ts.True(d.usingHeap)
	ts.Equal(6, d.count)
	ts.ElementsMatch(handles, d.handles())
}

func (ts *DepSetTestSuite) TestAllCompleteRequiresEvery() {
	d := newDependencySet([]Handle{1, 2, 3})
	complete := map[Handle]bool{1: true, 2: true}
	ts.False(d.allComplete(func(h Handle) bool { return complete[h] }))
	complete[3] = true
	ts.True(d.allComplete(func(h Handle) bool { return complete[h] }))
}

func (ts *DepSetTestSuite) TestRemoveInline() {
	d := newDependencySet([]Handle{1, 2, 3})
	d.remove(2)
	ts.Equal(2, d.count)
	ts.ElementsMatch([]Handle{1, 3}, d.handles())
}

func (ts *DepSetTestSuite) TestRemoveHeap() {
	d := newDependencySet([]Handle{1, 2, 3, 4, 5})
	d.remove(3)
	ts.Equal(4, d.count)
	ts.ElementsMatch([]Handle{1, 2, 4, 5}, d.handles())
}
