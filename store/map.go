package store

import (
	"iter"
	"slices"
)

// MapStore is a hash backed Store. It accepts arbitrary identifiers, which
// makes it the right fit for sparse identifier regimes where caller supplied
// identifiers can be far apart.
type MapStore[G any, T comparable] struct {
	items   map[uint64]Item[G, T]
	reverse reverseIndex[T]
}

// NewMapStore creates an empty hash backed store.
func NewMapStore[G any, T comparable]() *MapStore[G, T] {
	return &MapStore[G, T]{
		items:   make(map[uint64]Item[G, T]),
		reverse: make(reverseIndex[T]),
	}
}

func (s *MapStore[G, T]) Add(item Item[G, T]) {
	if prev, ok := s.items[item.ID]; ok && prev.HasObj {
		s.reverse.remove(prev.Obj, prev.ID)
	}
	s.items[item.ID] = item
	if item.HasObj {
		s.reverse.add(item.Obj, item.ID)
	}
}

func (s *MapStore[G, T]) Pop(id uint64) (Item[G, T], bool) {
	item, ok := s.items[id]
	if !ok {
		return Item[G, T]{}, false
	}
	delete(s.items, id)
	if item.HasObj {
		s.reverse.remove(item.Obj, item.ID)
	}
	return item, true
}

func (s *MapStore[G, T]) ByID(id uint64) (Item[G, T], bool) {
	item, ok := s.items[id]
	return item, ok
}

func (s *MapStore[G, T]) ByObject(obj T) (Item[G, T], bool) {
	id, ok := s.reverse.lowest(obj)
	if !ok {
		return Item[G, T]{}, false
	}
	return s.items[id], true
}

func (s *MapStore[G, T]) IDsForObject(obj T) []uint64 {
	return slices.Clone(s.reverse[obj])
}

func (s *MapStore[G, T]) Len() int {
	return len(s.items)
}

func (s *MapStore[G, T]) Clear() {
	clear(s.items)
	clear(s.reverse)
}

func (s *MapStore[G, T]) Items() iter.Seq[Item[G, T]] {
	return func(yield func(Item[G, T]) bool) {
		for _, item := range s.items {
			if !yield(item) {
				return
			}
		}
	}
}

var _ Store[int, string] = (*MapStore[int, string])(nil)
