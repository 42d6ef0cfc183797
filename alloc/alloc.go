// Package alloc provides the identifier allocation policies used by quadgo
// indexes.
//
// Monotonic is the sparse policy: a forward-only counter that can absorb
// caller-supplied custom identifiers. Dense assigns identifiers densely
// starting at 0 with LIFO reuse of released identifiers, so an association
// store can use the identifier value as a direct slice index instead of a
// hash lookup.
package alloc

import "slices"

// Monotonic hands out identifiers from a forward-only counter.
type Monotonic struct {
	next uint64
}

// NewMonotonic creates a monotonic allocator whose first auto-assigned
// identifier is start.
func NewMonotonic(start uint64) *Monotonic {
	return &Monotonic{next: start}
}

// Next returns the next identifier and advances the counter.
func (a *Monotonic) Next() uint64 {
	id := a.next
	a.next++
	return id
}

// Peek returns the identifier Next would assign, without advancing.
func (a *Monotonic) Peek() uint64 {
	return a.next
}

// Observe records a caller-supplied custom identifier: the counter advances
// to id+1 when id is at or past the current counter. Uniqueness against
// already-issued identifiers is not validated here; callers wanting collision
// detection must track live identifiers themselves.
func (a *Monotonic) Observe(id uint64) {
	if id >= a.next {
		a.next = id + 1
	}
}

// ReserveBlock atomically reserves n contiguous identifiers and returns the
// first of the block. Reserved identifiers are never reissued, even when the
// caller ends up using only a prefix of the block (a failed bulk-insert tail
// leaves a permanent gap rather than reclaiming identifiers).
func (a *Monotonic) ReserveBlock(n int) uint64 {
	start := a.next
	a.next += uint64(n)
	return start
}

// Dense hands out identifiers densely from 0, reusing released identifiers
// LIFO before extending the tail.
type Dense struct {
	free []uint64
	tail uint64
}

// NewDense creates a dense allocator.
func NewDense() *Dense {
	return &Dense{}
}

// Next returns the next identifier: the most recently released one if any,
// otherwise the tail.
func (a *Dense) Next() uint64 {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.tail
	a.tail++
	return id
}

// Release returns an identifier for reuse. Releasing an identifier that was
// never issued, or releasing twice, corrupts the allocator.
func (a *Dense) Release(id uint64) {
	a.free = append(a.free, id)
}

// ReserveBlock reserves n contiguous identifiers from the tail, bypassing the
// free list so the block is gap-free, and returns the first of the block.
func (a *Dense) ReserveBlock(n int) uint64 {
	start := a.tail
	a.tail += uint64(n)
	return start
}

// Acquire marks a specific identifier as in use. It exists for restore
// paths that replay identifiers in arbitrary order: identifiers skipped
// while the tail grows are released for reuse, and an acquired identifier
// sitting on the free list is removed from it.
func (a *Dense) Acquire(id uint64) {
	if id >= a.tail {
		for i := a.tail; i < id; i++ {
			a.free = append(a.free, i)
		}
		a.tail = id + 1
		return
	}
	if i := slices.Index(a.free, id); i >= 0 {
		a.free = slices.Delete(a.free, i, i+1)
	}
}

// Tail returns the dense length: every issued identifier is below it.
func (a *Dense) Tail() uint64 {
	return a.tail
}

// Reset empties the allocator.
func (a *Dense) Reset() {
	a.free = a.free[:0]
	a.tail = 0
}
