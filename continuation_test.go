package jobsys

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type ContinuationTestSuite struct {
	suite.Suite
}

func TestContinuationTestSuite(t *testing.T) {
	suite.Run(t, new(ContinuationTestSuite))
}

func (ts *ContinuationTestSuite) TestResumesImmediatelyIfAlreadyComplete() {
	rec := newJobRecord(1, WorkFunc{JobName: "x"}, newDependencySet(nil), Normal)
	rec.complete.Store(true)

	ran := false
	registerContinuation(rec, ContinuationFunc(func() { ran = true }))
	ts.True(ran)
	ts.Empty(rec.continuations)
}

func (ts *ContinuationTestSuite) TestResumesOnNotifyIfPendingAtRegistration() {
	rec := newJobRecord(1, WorkFunc{JobName: "x"}, newDependencySet(nil), Normal)

	ran := false
	registerContinuation(rec, ContinuationFunc(func() { ran = true }))
	ts.False(ran)

	rec.complete.Store(true)
	notifyContinuations(rec)
	ts.True(ran)
}

func (ts *ContinuationTestSuite) TestNotifyRunsInInsertionOrder() {
	rec := newJobRecord(1, WorkFunc{JobName: "x"}, newDependencySet(nil), Normal)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		registerContinuation(rec, ContinuationFunc(func() { order = append(order, i) }))
	}
	rec.complete.Store(true)
	notifyContinuations(rec)

	ts.Equal([]int{0, 1, 2, 3, 4}, order)
}

func (ts *ContinuationTestSuite) TestNotifyIsOneShot() {
	rec := newJobRecord(1, WorkFunc{JobName: "x"}, newDependencySet(nil), Normal)
	calls := 0
	registerContinuation(rec, ContinuationFunc(func() { calls++ }))
	rec.complete.Store(true)
	notifyContinuations(rec)
	notifyContinuations(rec)
	ts.Equal(1, calls)
}
