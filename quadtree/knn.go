package quadtree

import (
	"container/heap"

	"github.com/hupe1980/quadgo/geom"
	"github.com/hupe1980/quadgo/internal/queue"
)

// Neighbor is a nearest-neighbor search result.
type Neighbor[C geom.Coord, G geom.Geometry[C, G]] struct {
	Entry[C, G]

	// DistSq is the squared Euclidean distance from the query point to the
	// entry's geometry: point-to-point for point entries, point-to-nearest-
	// edge-or-interior for rectangle entries. Kept squared to avoid a root
	// per candidate; take math.Sqrt for the metric distance.
	DistSq float64
}

// NearestNeighbor returns the entry closest to the query point, or false when
// the tree is empty.
func (t *Tree[C, G]) NearestNeighbor(p geom.Point[C]) (Neighbor[C, G], bool) {
	res := t.NearestNeighbors(p, 1)
	if len(res) == 0 {
		return Neighbor[C, G]{}, false
	}
	return res[0], true
}

// NearestNeighbors returns the k entries minimizing Euclidean distance to the
// query point, sorted by non-decreasing distance with ties broken by
// ascending identifier. When the tree holds fewer than k entries, all of them
// are returned; this is never an error.
//
// Subtrees whose region cannot beat the current k-th best candidate are
// pruned rather than visited.
func (t *Tree[C, G]) NearestNeighbors(p geom.Point[C], k int) []Neighbor[C, G] {
	if k <= 0 || t.count == 0 {
		return nil
	}

	// Bounded max-heap of the current best k: the worst candidate sits on
	// top and is evicted first.
	best := &queue.PriorityQueue{Order: true}
	geoms := make(map[uint64]G, k)

	t.knn(0, p, k, best, geoms)

	// Drain the heap; it yields worst-first.
	out := make([]Neighbor[C, G], best.Len())
	for i := len(out) - 1; i >= 0; i-- {
		item, _ := heap.Pop(best).(*queue.PriorityQueueItem)
		out[i] = Neighbor[C, G]{
			Entry:  Entry[C, G]{ID: item.ID, Geom: geoms[item.ID]},
			DistSq: item.Distance,
		}
	}
	return out
}

func (t *Tree[C, G]) knn(ni int, p geom.Point[C], k int, best *queue.PriorityQueue, geoms map[uint64]G) {
	n := &t.nodes[ni]

	if best.Len() == k && n.bounds.DistSqToPoint(p) > best.Top().Distance {
		return
	}

	for _, e := range n.entries {
		d := e.Geom.DistSq(p)
		if best.Len() < k {
			heap.Push(best, &queue.PriorityQueueItem{ID: e.ID, Distance: d})
			geoms[e.ID] = e.Geom
			continue
		}
		worst := best.Top()
		if d < worst.Distance || (d == worst.Distance && e.ID < worst.ID) {
			evicted, _ := heap.Pop(best).(*queue.PriorityQueueItem)
			delete(geoms, evicted.ID)
			heap.Push(best, &queue.PriorityQueueItem{ID: e.ID, Distance: d})
			geoms[e.ID] = e.Geom
		}
	}

	if n.children == noChildren {
		return
	}

	// Visit children nearest-first so the candidate set tightens early and
	// later subtrees prune.
	var order [4]int
	var dist [4]float64
	for i := range 4 {
		ci := int(n.children) + i
		order[i] = ci
		dist[i] = t.nodes[ci].bounds.DistSqToPoint(p)
	}
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && dist[j] < dist[j-1]; j-- {
			dist[j], dist[j-1] = dist[j-1], dist[j]
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	for _, ci := range order {
		t.knn(ci, p, k, best, geoms)
	}
}
