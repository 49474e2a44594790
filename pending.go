package jobsys

import "sort"

// pendingList holds job records whose dependency set is not yet satisfied.
// Guarded by a spin lock per spec.md §3. Promotion scans the whole list
// linearly — the same access pattern as the original job system's
// ProcessDependencies — because a classic binary heap doesn't support
// "pull out whichever ready entries are scattered through the middle"
// efficiently. What's carried over from the teacher's
// strategies/priority_based.go PriorityQueue is its *ordering policy*
// (shouldSwap: priority descending, then FIFO by creation time) — applied
// here as a sort key over just the ready subset of one promotion pass, not
// as a standing heap (see SPEC_FULL.md §4 and DESIGN.md).
type pendingList struct {
	mu       spinLock
	items    []*jobRecord
	fairness map[Priority]int
}

func newPendingList() *pendingList {
	return &pendingList{fairness: make(map[Priority]int)}
}

func (p *pendingList) add(rec *jobRecord) {
	p.mu.Lock()
	p.items = append(p.items, rec)
	p.fairness[rec.priority]++
	p.mu.Unlock()
}

func (p *pendingList) len() int {
	p.mu.Lock()
	n := len(p.items)
	p.mu.Unlock()
	return n
}

// promoteReady removes every record whose dependencies are now all
// complete and returns them ordered by priority (Critical first), then by
// submission time within a priority tier.
func (p *pendingList) promoteReady(isComplete func(Handle) bool) []*jobRecord {
	p.mu.Lock()
	var ready []*jobRecord
	remaining := p.items[:0]
	for _, rec := range p.items {
		if rec.deps.allComplete(isComplete) {
			ready = append(ready, rec)
			p.fairness[rec.priority]--
		} else {
			remaining = append(remaining, rec)
		}
	}
	p.items = remaining
	p.mu.Unlock()

	sort.SliceStable(ready, func(i, j int) bool {
		a, b := ready[i], ready[j]
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.submittedAtMicros.Load() < b.submittedAtMicros.Load()
	})
	return ready
}

// fairnessSnapshot returns a copy of the per-priority pending counts,
// mirroring the teacher's GetFairnessStats.
func (p *pendingList) fairnessSnapshot() map[Priority]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[Priority]int, len(p.fairness))
	for k, v := range p.fairness {
		out[k] = v
	}
	return out
}
