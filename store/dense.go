package store

import (
	"iter"
	"slices"

	"github.com/hupe1980/quadgo/alloc"
)

// DenseStore is a slice backed Store for the dense identifier regime: every
// identifier it allocates indexes its backing slice directly, turning every
// lookup into an array access. Released slots become holes that the allocator
// hands out LIFO on the next allocation.
//
// Identifiers must come from AllocID (or be replayed through Add during a
// restore); arbitrary sparse identifiers would grow the slice proportionally
// to the largest identifier.
type DenseStore[G any, T comparable] struct {
	slots   []Item[G, T]
	live    []bool
	count   int
	ids     *alloc.Dense
	reverse reverseIndex[T]
}

// NewDenseStore creates an empty slice backed store.
func NewDenseStore[G any, T comparable]() *DenseStore[G, T] {
	return &DenseStore[G, T]{
		ids:     alloc.NewDense(),
		reverse: make(reverseIndex[T]),
	}
}

// AllocID reserves the next dense identifier: the most recently released
// slot if any, otherwise a fresh slot at the tail.
func (s *DenseStore[G, T]) AllocID() uint64 {
	return s.ids.Next()
}

// AllocBlock reserves n contiguous identifiers from the tail and returns the
// first of the block. The block bypasses released slots so bulk inserts get
// consecutive identifiers.
func (s *DenseStore[G, T]) AllocBlock(n int) uint64 {
	return s.ids.ReserveBlock(n)
}

func (s *DenseStore[G, T]) Add(item Item[G, T]) {
	id := int(item.ID)
	if id >= len(s.slots) {
		s.grow(id + 1)
	}
	if s.live[id] {
		if prev := s.slots[id]; prev.HasObj {
			s.reverse.remove(prev.Obj, prev.ID)
		}
	} else {
		s.ids.Acquire(item.ID)
		s.live[id] = true
		s.count++
	}
	s.slots[id] = item
	if item.HasObj {
		s.reverse.add(item.Obj, item.ID)
	}
}

func (s *DenseStore[G, T]) Pop(id uint64) (Item[G, T], bool) {
	i := int(id)
	if i >= len(s.slots) || !s.live[i] {
		return Item[G, T]{}, false
	}
	item := s.slots[i]
	s.slots[i] = Item[G, T]{}
	s.live[i] = false
	s.count--
	s.ids.Release(id)
	if item.HasObj {
		s.reverse.remove(item.Obj, item.ID)
	}
	return item, true
}

func (s *DenseStore[G, T]) ByID(id uint64) (Item[G, T], bool) {
	i := int(id)
	if i >= len(s.slots) || !s.live[i] {
		return Item[G, T]{}, false
	}
	return s.slots[i], true
}

func (s *DenseStore[G, T]) ByObject(obj T) (Item[G, T], bool) {
	id, ok := s.reverse.lowest(obj)
	if !ok {
		return Item[G, T]{}, false
	}
	return s.slots[id], true
}

func (s *DenseStore[G, T]) IDsForObject(obj T) []uint64 {
	return slices.Clone(s.reverse[obj])
}

// Len returns the number of live records.
func (s *DenseStore[G, T]) Len() int {
	return s.count
}

// Tail returns the dense length of the identifier space: every identifier
// ever issued is below it.
func (s *DenseStore[G, T]) Tail() uint64 {
	return s.ids.Tail()
}

// DenseLen returns the backing slice length: live records plus holes.
func (s *DenseStore[G, T]) DenseLen() int {
	return len(s.slots)
}

func (s *DenseStore[G, T]) Clear() {
	s.slots = s.slots[:0]
	s.live = s.live[:0]
	s.count = 0
	s.ids.Reset()
	clear(s.reverse)
}

func (s *DenseStore[G, T]) Items() iter.Seq[Item[G, T]] {
	return func(yield func(Item[G, T]) bool) {
		for i, item := range s.slots {
			if !s.live[i] {
				continue
			}
			if !yield(item) {
				return
			}
		}
	}
}

func (s *DenseStore[G, T]) grow(n int) {
	for len(s.slots) < n {
		s.slots = append(s.slots, Item[G, T]{})
		s.live = append(s.live, false)
	}
}

var _ Store[int, string] = (*DenseStore[int, string])(nil)
