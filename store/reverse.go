package store

import "slices"

// reverseIndex maps a payload reference to the sorted set of identifiers
// currently holding it.
type reverseIndex[T comparable] map[T][]uint64

func (r reverseIndex[T]) add(obj T, id uint64) {
	ids := r[obj]
	i, found := slices.BinarySearch(ids, id)
	if found {
		return
	}
	r[obj] = slices.Insert(ids, i, id)
}

func (r reverseIndex[T]) remove(obj T, id uint64) {
	ids := r[obj]
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return
	}
	ids = slices.Delete(ids, i, i+1)
	if len(ids) == 0 {
		delete(r, obj)
		return
	}
	r[obj] = ids
}

func (r reverseIndex[T]) lowest(obj T) (uint64, bool) {
	ids := r[obj]
	if len(ids) == 0 {
		return 0, false
	}
	return ids[0], true
}
