package jobsys

import "sync/atomic"

// cacheLineSize separates the hot top/bottom cursors onto their own cache
// lines so a stealer spinning on top doesn't false-share with the owner
// pushing/popping bottom. Grounded on the padding layout in
// other_examples/e575ca9a_rutvijjoshi26-parallel-compressor-go__core-wsdeque.go.go.
const cacheLineSize = 64

// boundedDeque is a fixed-capacity Chase-Lev work-stealing deque. The owner
// goroutine calls pushBottom/popBottom (LIFO); any other goroutine calls
// stealTop (FIFO). Capacity is fixed at construction — a full deque refuses
// pushBottom rather than growing, so the scheduler can route overflow to
// its own queue (SPEC_FULL.md §2, spec.md §4.1).
//
// Go's atomic package gives sequentially-consistent Load/Store/CAS, which
// is a strictly stronger guarantee than the acquire/release pairing
// spec.md §4.1 calls for; the protocol below is the same algorithm as the
// grounding reference, just using sync/atomic's typed Uint64 instead of
// hand-rolled memory_order annotations.
type boundedDeque struct {
	top    atomic.Uint64
	_      [cacheLineSize]byte
	bottom atomic.Uint64
	_      [cacheLineSize]byte

	mask  uint64
	slots []*jobRecord
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	x := uint64(n - 1)
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	return int(x + 1)
}

// newBoundedDeque allocates a deque whose capacity is the next power of two
// at or above capacity (minimum 1).
func newBoundedDeque(capacity int) *boundedDeque {
	size := nextPowerOfTwo(capacity)
	return &boundedDeque{
		mask:  uint64(size - 1),
		slots: make([]*jobRecord, size),
	}
}

func (d *boundedDeque) capacity() int {
	return len(d.slots)
}

// size returns the instantaneous occupancy. It is advisory only — under
// concurrent stealing it can be stale the instant it's read.
func (d *boundedDeque) size() int {
	b := d.bottom.Load()
	t := d.top.Load()
	if b < t {
		return 0
	}
	return int(b - t)
}

func (d *boundedDeque) isEmpty() bool {
	return d.size() == 0
}

// pushBottom appends item at the bottom. Owner-only. Returns false if the
// deque is full — the caller must route to the overflow queue.
func (d *boundedDeque) pushBottom(item *jobRecord) bool {
	b := d.bottom.Load()
	t := d.top.Load()
	if b-t >= uint64(len(d.slots)) {
		return false
	}
	d.slots[b&d.mask] = item
	d.bottom.Store(b + 1)
	return true
}

// popBottom removes and returns the most recently pushed item. Owner-only.
// Resolves the single-element race against a concurrent stealTop with a
// CAS on top: the loser restores bottom and returns nothing.
func (d *boundedDeque) popBottom() (*jobRecord, bool) {
	b := d.bottom.Load()
	if b == 0 {
		return nil, false
	}
	b--
	d.bottom.Store(b)

	t := d.top.Load()
	if t > b {
		// Deque was already empty; restore bottom.
		d.bottom.Store(b + 1)
		return nil, false
	}

	item := d.slots[b&d.mask]
	if t == b {
		// Last element: race the stealers for it.
		if !d.top.CompareAndSwap(t, t+1) {
			d.slots[b&d.mask] = nil
			d.bottom.Store(b + 1)
			return nil, false
		}
		d.bottom.Store(b + 1)
	}
	d.slots[b&d.mask] = nil
	return item, true
}

// stealTop removes and returns the least recently pushed item. Safe for any
// non-owner goroutine; arbitrates against other stealers and against the
// owner's last-element pop via CAS on top.
func (d *boundedDeque) stealTop() (*jobRecord, bool) {
	t := d.top.Load()
	b := d.bottom.Load()
	if t >= b {
		return nil, false
	}
	item := d.slots[t&d.mask]
	if !d.top.CompareAndSwap(t, t+1) {
		return nil, false
	}
	return item, true
}
