package jobsys

// maxInlineDependencies is the inline capacity of a dependencySet before it
// promotes to a heap-backed slice, mirroring the original job system's
// MAX_INLINE_DEPENDENCIES constant.
const maxInlineDependencies = 4

// dependencySet is a small-vector of handles: up to maxInlineDependencies
// stored inline, then transparently promoted to a single heap allocation.
// It is not thread-safe and is only mutated by the submitting goroutine
// before the owning jobRecord is published to the job table.
type dependencySet struct {
	inline    [maxInlineDependencies]Handle
	count     int
	heap      []Handle
	usingHeap bool
}

// newDependencySet builds a dependencySet from a slice of handles, skipping
// invalid ones (matching the original's AddDependency no-op on !IsValid()).
func newDependencySet(handles []Handle) *dependencySet {
	d := &dependencySet{}
	for _, h := range handles {
		d.add(h)
	}
	return d
}

func (d *dependencySet) add(h Handle) {
	if !h.IsValid() {
		return
	}
	if !d.usingHeap && d.count < maxInlineDependencies {
		d.inline[d.count] = h
		d.count++
		return
	}
	if !d.usingHeap {
		d.heap = make([]Handle, 0, maxInlineDependencies*2)
		d.heap = append(d.heap, d.inline[:d.count]...)
		d.usingHeap = true
	}
	d.heap = append(d.heap, h)
	d.count++
}

func (d *dependencySet) remove(h Handle) {
	if d.usingHeap {
		for i, v := range d.heap {
			if v == h {
				d.heap = append(d.heap[:i], d.heap[i+1:]...)
				d.count--
				return
			}
		}
		return
	}
	for i := 0; i < d.count; i++ {
		if d.inline[i] == h {
			copy(d.inline[i:d.count-1], d.inline[i+1:d.count])
			d.count--
			return
		}
	}
}

func (d *dependencySet) clear() {
	d.heap = nil
	d.usingHeap = false
	d.count = 0
}

func (d *dependencySet) isEmpty() bool {
	return d.count == 0
}

// handles returns the dependency handles, inline or heap-backed.
func (d *dependencySet) handles() []Handle {
	if d.usingHeap {
		return d.heap
	}
	return d.inline[:d.count]
}

// allComplete reports whether every dependency is complete, per the
// provided completion predicate. An empty set is vacuously complete.
func (d *dependencySet) allComplete(isComplete func(Handle) bool) bool {
	for _, h := range d.handles() {
		if !isComplete(h) {
			return false
		}
	}
	return true
}
