// Package quadtree provides the spatial index engine: a region quadtree over
// 2D points and axis-aligned rectangles, generic over the four supported
// coordinate encodings.
//
// The engine operates purely on (identifier, geometry) pairs; it knows
// nothing about caller payloads. Nodes are kept in an arena indexed by
// handle, with each subdivided node owning a contiguous block of four
// children, so clearing the tree reuses allocations instead of tearing the
// structure down.
package quadtree

import (
	"iter"

	"github.com/hupe1980/quadgo/geom"
)

// DefaultMaxDepth is the subdivision ceiling used when none is configured.
// Beyond it, nodes overflow their capacity rather than splitting further.
const DefaultMaxDepth = 32

// Entry is a stored (identifier, geometry) pair.
type Entry[C geom.Coord, G geom.Geometry[C, G]] struct {
	ID   uint64
	Geom G
}

// Options contains configuration options for the engine.
type Options struct {
	// Capacity is the number of entries a node holds before it subdivides.
	Capacity int

	// MaxDepth is the hard ceiling on subdivision recursion. Zero selects
	// DefaultMaxDepth.
	MaxDepth int
}

// DefaultOptions contains the default configuration options for the engine.
var DefaultOptions = Options{
	Capacity: 16,
	MaxDepth: 0,
}

// noChildren marks a leaf node in the arena.
const noChildren = -1

type node[C geom.Coord, G geom.Geometry[C, G]] struct {
	bounds   geom.Rect[C]
	entries  []Entry[C, G]
	children int32 // arena index of the first of four children, noChildren for leaves
}

// Tree is a region quadtree over geometries of type G with coordinates of
// type C. It is not safe for concurrent mutation; callers needing concurrent
// access must serialize externally.
type Tree[C geom.Coord, G geom.Geometry[C, G]] struct {
	bounds   geom.Rect[C]
	capacity int
	maxDepth int
	nodes    []node[C, G]
	count    int
}

// New creates a new engine covering the given bounds.
func New[C geom.Coord, G geom.Geometry[C, G]](bounds geom.Rect[C], optFns ...func(o *Options)) (*Tree[C, G], error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if !bounds.Valid() {
		return nil, &ErrInvalidBounds{Bounds: boundsString(bounds)}
	}
	if opts.Capacity <= 0 {
		return nil, &ErrInvalidCapacity{Capacity: opts.Capacity}
	}
	if opts.MaxDepth < 0 {
		return nil, &ErrInvalidMaxDepth{MaxDepth: opts.MaxDepth}
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}

	t := &Tree[C, G]{
		bounds:   bounds,
		capacity: opts.Capacity,
		maxDepth: opts.MaxDepth,
	}
	t.nodes = append(t.nodes, node[C, G]{bounds: bounds, children: noChildren})

	return t, nil
}

// Bounds returns the coordinate universe fixed at construction.
func (t *Tree[C, G]) Bounds() geom.Rect[C] { return t.bounds }

// Capacity returns the per-node entry capacity.
func (t *Tree[C, G]) Capacity() int { return t.capacity }

// MaxDepth returns the subdivision ceiling in effect, including the internal
// default chosen when none was configured.
func (t *Tree[C, G]) MaxDepth() int { return t.maxDepth }

// DType returns the coordinate encoding tag of this instance.
func (t *Tree[C, G]) DType() geom.DType { return geom.DTypeOf[C]() }

// Count returns the number of stored entries.
func (t *Tree[C, G]) Count() int { return t.count }

// Insert adds an entry to the tree. It reports false, with no state change,
// when the geometry lies outside the tree bounds. Straddling rectangles are
// kept at the lowest node whose region fully contains them, so every entry
// lives at exactly one node.
func (t *Tree[C, G]) Insert(id uint64, g G) bool {
	gb := g.Bounds()
	if !t.bounds.ContainsRect(gb) {
		return false
	}

	ni, depth := 0, 0
	for {
		n := &t.nodes[ni]

		if n.children != noChildren {
			q := n.bounds.QuadrantFor(gb)
			if q < 0 {
				// Straddles the subdivision boundary; canonical storage node.
				n.entries = append(n.entries, Entry[C, G]{ID: id, Geom: g})
				t.count++
				return true
			}
			ni = int(n.children) + q
			depth++
			continue
		}

		if len(n.entries) < t.capacity || depth >= t.maxDepth {
			n.entries = append(n.entries, Entry[C, G]{ID: id, Geom: g})
			t.count++
			return true
		}

		t.split(ni)
		// Node is subdivided now; the next iteration descends.
	}
}

// split subdivides the node into four quadrant children and redistributes its
// entries. Entries that fit no single quadrant stay at the node.
func (t *Tree[C, G]) split(ni int) {
	first := int32(len(t.nodes))
	b := t.nodes[ni].bounds
	for i := range 4 {
		t.nodes = append(t.nodes, node[C, G]{bounds: b.Quadrant(i), children: noChildren})
	}

	// Re-take the pointer: the appends above may have moved the arena.
	n := &t.nodes[ni]
	n.children = first

	kept := n.entries[:0]
	for _, e := range n.entries {
		q := b.QuadrantFor(e.Geom.Bounds())
		if q < 0 {
			kept = append(kept, e)
			continue
		}
		child := &t.nodes[int(first)+q]
		child.entries = append(child.entries, e)
	}
	n.entries = kept
}

// Delete removes the first entry matching both the identifier and the exact
// geometry. It reports false when no exact match exists; stale coordinates
// never fall back to a fuzzy match.
func (t *Tree[C, G]) Delete(id uint64, g G) bool {
	gb := g.Bounds()
	if !t.bounds.ContainsRect(gb) {
		return false
	}

	ni := 0
	for {
		n := &t.nodes[ni]
		for i, e := range n.entries {
			if e.ID == id && e.Geom == g {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
				t.count--
				return true
			}
		}
		if n.children == noChildren {
			return false
		}
		q := n.bounds.QuadrantFor(gb)
		if q < 0 {
			return false
		}
		ni = int(n.children) + q
	}
}

// Update moves an entry from old to new coordinates as delete-then-insert.
// If the delete fails, the insert is not attempted. If the insert fails (new
// geometry out of bounds) the original entry is restored before reporting
// failure, so a failed update never loses the entry.
func (t *Tree[C, G]) Update(id uint64, old, updated G) bool {
	if !t.Delete(id, old) {
		return false
	}
	if !t.Insert(id, updated) {
		t.Insert(id, old)
		return false
	}
	return true
}

// Query returns every entry whose geometry intersects the query rectangle,
// inclusive of boundaries: points on the rectangle edge match, and touching
// rectangles overlap. Each entry is returned exactly once.
func (t *Tree[C, G]) Query(rect geom.Rect[C]) []Entry[C, G] {
	var out []Entry[C, G]
	t.queryInto(0, rect, &out)
	return out
}

// QueryIDs returns only the identifiers of matching entries.
func (t *Tree[C, G]) QueryIDs(rect geom.Rect[C]) []uint64 {
	entries := t.Query(rect)
	ids := make([]uint64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func (t *Tree[C, G]) queryInto(ni int, rect geom.Rect[C], out *[]Entry[C, G]) {
	n := &t.nodes[ni]
	if !n.bounds.Intersects(rect) {
		return
	}

	for _, e := range n.entries {
		if rect.Intersects(e.Geom.Bounds()) {
			*out = append(*out, e)
		}
	}

	if n.children != noChildren {
		for i := range 4 {
			t.queryInto(int(n.children)+i, rect, out)
		}
	}
}

// InsertMany bulk-inserts geometries with contiguous identifiers starting at
// startID, one per geometry in input order, and returns the last identifier
// assigned. The operation stops at the first out-of-bounds geometry; entries
// before the failure stay committed. This partial-commit behavior is a
// deliberate performance trade-off (no pre-validation pass); callers infer
// the committed count from the returned identifier. When the first geometry
// already fails, the result is startID-1.
func (t *Tree[C, G]) InsertMany(startID uint64, geoms []G) uint64 {
	id := startID
	for _, g := range geoms {
		if !t.Insert(id, g) {
			return id - 1
		}
		id++
	}
	return id - 1
}

// Entries yields every stored entry in node order. Order is unspecified but
// stable for the lifetime of a single call; the tree must not be mutated
// while iterating.
func (t *Tree[C, G]) Entries() iter.Seq[Entry[C, G]] {
	return func(yield func(Entry[C, G]) bool) {
		for ni := range t.nodes {
			for _, e := range t.nodes[ni].entries {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Clear empties the tree in place, preserving bounds, capacity and max depth.
// The node arena is retained for reuse.
func (t *Tree[C, G]) Clear() {
	t.nodes = t.nodes[:1]
	t.nodes[0].children = noChildren
	t.nodes[0].entries = t.nodes[0].entries[:0]
	t.count = 0
}

// NodeBounds returns the boundary rectangle of every node in the tree.
// Useful for visualization.
func (t *Tree[C, G]) NodeBounds() []geom.Rect[C] {
	out := make([]geom.Rect[C], len(t.nodes))
	for i := range t.nodes {
		out[i] = t.nodes[i].bounds
	}
	return out
}

// Contains reports whether any entry exists with exactly this geometry.
func (t *Tree[C, G]) Contains(g G) bool {
	for _, e := range t.Query(g.Bounds()) {
		if e.Geom == g {
			return true
		}
	}
	return false
}
