package jobsys

// overflowQueue is a FIFO of job records that found no free slot in any
// worker deque at Place time, guarded by a spin lock (spec.md §3).
type overflowQueue struct {
	mu    spinLock
	items []*jobRecord
}

func (q *overflowQueue) push(rec *jobRecord) {
	q.mu.Lock()
	q.items = append(q.items, rec)
	q.mu.Unlock()
}

// pop dequeues the oldest record, FIFO.
func (q *overflowQueue) pop() (*jobRecord, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	rec := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return rec, true
}

func (q *overflowQueue) len() int {
	q.mu.Lock()
	n := len(q.items)
	q.mu.Unlock()
	return n
}

// completedList retains recently-finished job records for introspection,
// bounded to maxRetained entries (oldest dropped first) so a long-running
// scheduler doesn't grow this list without bound. spec.md doesn't mandate a
// cap; it only says records are "retained for introspection" — a bound is
// the natural Go rendition of that without reproducing the original's
// unbounded std::vector.
type completedList struct {
	mu          spinLock
	items       []*jobRecord
	maxRetained int
}

func newCompletedList(maxRetained int) *completedList {
	return &completedList{maxRetained: maxRetained}
}

func (c *completedList) push(rec *jobRecord) {
	c.mu.Lock()
	c.items = append(c.items, rec)
	if c.maxRetained > 0 && len(c.items) > c.maxRetained {
		drop := len(c.items) - c.maxRetained
		c.items = c.items[drop:]
	}
	c.mu.Unlock()
}

func (c *completedList) len() int {
	c.mu.Lock()
	n := len(c.items)
	c.mu.Unlock()
	return n
}
