// Package quadgo provides an embedded 2D spatial index for Go.
//
// Quadgo indexes points and axis-aligned rectangles in a region quadtree
// with production-ready features including:
//
//   - Type-safe fluent builders: Points[C, T](), Rects[C, T]()
//   - Four coordinate encodings: float32, float64, int32, int64
//   - Range queries, exact-match deletes and k-nearest-neighbor search
//   - Payload association with reverse payload-to-identifier lookup
//   - Sparse or dense identifier assignment (Roaring bitmap live-set)
//   - Versioned binary snapshots with CRC32, zstd/LZ4 compression and
//     pluggable payload codecs
//   - Snapshot storage backends: local filesystem, MinIO, Amazon S3
//
// # Quick Start (Fluent API)
//
// Create a point index with payload tracking:
//
//	idx, err := quadgo.Points[float32, string](geom.R[float32](0, 0, 1000, 1000)).
//	    Capacity(32).
//	    TrackObjects().
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//
// Insert, query and search:
//
//	id, _ := idx.InsertObject(geom.Pt[float32](10, 20), "player")
//	hits := idx.Query(geom.R[float32](0, 0, 100, 100))
//	nn, ok := idx.NearestNeighbor(geom.Pt[float32](12, 19))
//
// Snapshot round-trip:
//
//	data, _ := idx.ToBytes(true)
//	restored, _ := quadgo.PointsFromBytes[float32, string](data, true)
//
// # Identifier Regimes
//
// The default sparse regime assigns identifiers from a forward-only counter
// and accepts caller-supplied identifiers via InsertWithID. The dense regime
// (DenseIDs) assigns identifiers from 0 and reuses released ones, letting
// the association store index records by identifier directly; it rejects
// caller-supplied identifiers.
package quadgo

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/quadgo/alloc"
	"github.com/hupe1980/quadgo/codec"
	"github.com/hupe1980/quadgo/geom"
	"github.com/hupe1980/quadgo/quadtree"
	"github.com/hupe1980/quadgo/snapshot"
	"github.com/hupe1980/quadgo/store"
)

// Index is a 2D spatial index over geometries of type G with coordinates of
// type C, associating entries with optional payloads of type T.
//
// All operations are safe for concurrent use. The engine, allocator,
// association store and live-identifier bitmap are mutated together under
// one lock, so they never disagree about which entries exist.
type Index[C geom.Coord, G geom.Geometry[C, G], T comparable] struct {
	mu           sync.RWMutex
	tree         *quadtree.Tree[C, G]
	store        store.Store[G, T]
	dense        *store.DenseStore[G, T] // non-nil in dense identifier mode
	ids          *alloc.Monotonic        // non-nil in sparse identifier mode
	live         *roaring64.Bitmap
	trackObjects bool
	startID      uint64
	codec        codec.Codec
	compression  snapshot.Compression
	metrics      MetricsCollector
	logger       *Logger
}

func newIndex[C geom.Coord, G geom.Geometry[C, G], T comparable](cfg config[C]) (*Index[C, G, T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	tree, err := quadtree.New[C, G](cfg.bounds, func(o *quadtree.Options) {
		if cfg.capacity > 0 {
			o.Capacity = cfg.capacity
		}
		o.MaxDepth = cfg.maxDepth
	})
	if err != nil {
		return nil, err
	}

	idx := &Index[C, G, T]{
		tree:         tree,
		live:         roaring64.New(),
		trackObjects: cfg.trackObjects,
		startID:      cfg.startID,
		codec:        cfg.codec,
		compression:  cfg.compression,
		metrics:      cfg.metrics,
		logger:       cfg.logger,
	}

	if idx.codec == nil {
		idx.codec = codec.Default
	}
	if idx.metrics == nil {
		idx.metrics = NoopMetricsCollector{}
	}
	if idx.logger == nil {
		idx.logger = NoopLogger()
	}

	if cfg.denseIDs {
		ds := store.NewDenseStore[G, T]()
		idx.dense = ds
		idx.store = ds
	} else {
		idx.store = store.NewMapStore[G, T]()
		idx.ids = alloc.NewMonotonic(cfg.startID)
	}

	return idx, nil
}

// InsertResult describes the committed portion of a bulk insert.
type InsertResult struct {
	// StartID is the first identifier assigned. Meaningless when Count is 0.
	StartID uint64
	// EndID is the last identifier assigned. Meaningless when Count is 0.
	EndID uint64
	// Count is the number of entries committed.
	Count int
}

// Insert adds a geometry and returns its auto-assigned identifier.
func (idx *Index[C, G, T]) Insert(g G) (uint64, error) {
	return idx.insert(g, nil, nil)
}

// InsertWithID adds a geometry under a caller-supplied identifier.
//
// Requires sparse identifier mode; collisions with live identifiers are
// rejected with ErrIDInUse. The auto-assignment counter advances past the
// supplied identifier so later auto-assigned identifiers never collide
// with it.
func (idx *Index[C, G, T]) InsertWithID(g G, id uint64) error {
	_, err := idx.insert(g, &id, nil)
	return err
}

// InsertObject adds a geometry with an associated payload and returns its
// auto-assigned identifier. Requires object tracking.
func (idx *Index[C, G, T]) InsertObject(g G, obj T) (uint64, error) {
	return idx.insert(g, nil, &obj)
}

// InsertObjectWithID adds a geometry with an associated payload under a
// caller-supplied identifier. Requires object tracking and sparse
// identifier mode.
func (idx *Index[C, G, T]) InsertObjectWithID(g G, id uint64, obj T) error {
	_, err := idx.insert(g, &id, &obj)
	return err
}

func (idx *Index[C, G, T]) insert(g G, customID *uint64, obj *T) (uint64, error) {
	start := time.Now()

	id, err := idx.insertLocked(g, customID, obj)

	idx.metrics.RecordInsert(time.Since(start), err)
	idx.logger.LogInsert(id, err)

	return id, err
}

func (idx *Index[C, G, T]) insertLocked(g G, customID *uint64, obj *T) (uint64, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if obj != nil && !idx.trackObjects {
		return 0, ErrTrackingDisabled
	}

	if !idx.tree.Bounds().ContainsRect(g.Bounds()) {
		return 0, idx.outOfBounds(g)
	}

	var id uint64

	switch {
	case customID != nil:
		if idx.dense != nil {
			return 0, ErrCustomIDUnsupported
		}
		if idx.live.Contains(*customID) {
			return 0, fmt.Errorf("%w: %d", ErrIDInUse, *customID)
		}
		id = *customID
		idx.ids.Observe(id)
	case idx.dense != nil:
		id = idx.dense.AllocID()
	default:
		id = idx.ids.Next()
	}

	idx.tree.Insert(id, g)

	item := store.Item[G, T]{ID: id, Geom: g}
	if obj != nil {
		item.Obj = *obj
		item.HasObj = true
	}
	idx.store.Add(item)
	idx.live.Add(id)

	return id, nil
}

// InsertMany bulk-inserts geometries with contiguous identifiers, one per
// geometry in input order.
//
// The operation stops at the first out-of-bounds geometry: entries committed
// before the failure stay in the index, the returned result describes them,
// and the error identifies the offending geometry. Identifiers reserved for
// the uncommitted tail are not reissued.
func (idx *Index[C, G, T]) InsertMany(geoms []G) (InsertResult, error) {
	start := time.Now()

	result, err := idx.insertManyLocked(geoms)

	idx.metrics.RecordBulkInsert(len(geoms), result.Count, time.Since(start))
	idx.logger.LogBulkInsert(len(geoms), result.Count, err)

	return result, err
}

func (idx *Index[C, G, T]) insertManyLocked(geoms []G) (InsertResult, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(geoms) == 0 {
		return InsertResult{}, nil
	}

	var startID uint64
	if idx.dense != nil {
		startID = idx.dense.AllocBlock(len(geoms))
	} else {
		startID = idx.ids.ReserveBlock(len(geoms))
	}

	lastID := idx.tree.InsertMany(startID, geoms)
	count := int(lastID - startID + 1) // wraps to 0 when nothing committed

	for i := 0; i < count; i++ {
		id := startID + uint64(i)
		idx.store.Add(store.Item[G, T]{ID: id, Geom: geoms[i]})
		idx.live.Add(id)
	}

	result := InsertResult{StartID: startID, EndID: lastID, Count: count}

	if count < len(geoms) {
		return result, idx.outOfBounds(geoms[count])
	}

	return result, nil
}

// InsertManyCoords bulk-inserts geometries given as a flat coordinate
// buffer: x,y pairs for point indexes, minx,miny,maxx,maxy quadruples for
// rectangle indexes. Partial-commit semantics match InsertMany.
func (idx *Index[C, G, T]) InsertManyCoords(coords []C) (InsertResult, error) {
	arity := coordArity[C, G]()
	if len(coords)%arity != 0 {
		return InsertResult{}, fmt.Errorf("coordinate count %d is not a multiple of %d", len(coords), arity)
	}

	geoms := make([]G, 0, len(coords)/arity)
	for i := 0; i < len(coords); i += arity {
		geoms = append(geoms, geomAt[C, G](coords, i))
	}

	return idx.InsertMany(geoms)
}

// Delete removes the entry matching both identifier and exact geometry.
// Returns ErrNotFound when no such entry exists.
func (idx *Index[C, G, T]) Delete(id uint64, g G) error {
	start := time.Now()

	err := idx.deleteLocked(id, g)

	idx.metrics.RecordDelete(time.Since(start), err)
	idx.logger.LogDelete(id, err)

	return err
}

func (idx *Index[C, G, T]) deleteLocked(id uint64, g G) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.remove(id, g)
}

// remove unlinks one entry from the engine, store and live set.
// Caller must hold the write lock.
func (idx *Index[C, G, T]) remove(id uint64, g G) error {
	if !idx.tree.Delete(id, g) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	idx.store.Pop(id)
	idx.live.Remove(id)

	return nil
}

// DeleteByID removes the entry with this identifier, resolving its geometry
// through the association store.
func (idx *Index[C, G, T]) DeleteByID(id uint64) error {
	start := time.Now()

	err := idx.deleteByIDLocked(id)

	idx.metrics.RecordDelete(time.Since(start), err)
	idx.logger.LogDelete(id, err)

	return err
}

func (idx *Index[C, G, T]) deleteByIDLocked(id uint64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	item, ok := idx.store.ByID(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return idx.remove(id, item.Geom)
}

// DeleteOneByObject removes the entry with the lowest identifier holding
// this exact payload reference and returns its identifier. Requires object
// tracking.
func (idx *Index[C, G, T]) DeleteOneByObject(obj T) (uint64, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.trackObjects {
		return 0, ErrTrackingDisabled
	}

	item, ok := idx.store.ByObject(obj)
	if !ok {
		return 0, ErrNotFound
	}

	return item.ID, idx.remove(item.ID, item.Geom)
}

// DeleteAllByObject removes every entry holding this exact payload reference
// and returns the number removed. Requires object tracking.
func (idx *Index[C, G, T]) DeleteAllByObject(obj T) (int, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.trackObjects {
		return 0, ErrTrackingDisabled
	}

	ids := idx.store.IDsForObject(obj)
	for _, id := range ids {
		item, ok := idx.store.ByID(id)
		if !ok {
			continue
		}
		if err := idx.remove(id, item.Geom); err != nil {
			return 0, err
		}
	}

	return len(ids), nil
}

// Update moves the entry with this identifier to a new geometry, resolving
// its current geometry through the association store. The identifier and
// any attached payload are preserved. On failure the entry is left intact
// at its old geometry.
func (idx *Index[C, G, T]) Update(id uint64, updated G) error {
	start := time.Now()

	err := idx.updateLocked(id, updated)

	idx.metrics.RecordUpdate(time.Since(start), err)
	idx.logger.LogUpdate(id, err)

	return err
}

func (idx *Index[C, G, T]) updateLocked(id uint64, updated G) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	item, ok := idx.store.ByID(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	if !idx.tree.Bounds().ContainsRect(updated.Bounds()) {
		return idx.outOfBounds(updated)
	}

	if !idx.tree.Update(id, item.Geom, updated) {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	item.Geom = updated
	idx.store.Add(item)

	return nil
}

// Query returns all entries whose geometry intersects the rectangle,
// boundary inclusive.
func (idx *Index[C, G, T]) Query(rect geom.Rect[C]) []quadtree.Entry[C, G] {
	start := time.Now()

	idx.mu.RLock()
	out := idx.tree.Query(rect)
	idx.mu.RUnlock()

	idx.metrics.RecordQuery(len(out), time.Since(start))
	idx.logger.LogQuery(len(out))

	return out
}

// QueryIDs returns the identifiers of all entries whose geometry intersects
// the rectangle, boundary inclusive.
func (idx *Index[C, G, T]) QueryIDs(rect geom.Rect[C]) []uint64 {
	start := time.Now()

	idx.mu.RLock()
	out := idx.tree.QueryIDs(rect)
	idx.mu.RUnlock()

	idx.metrics.RecordQuery(len(out), time.Since(start))
	idx.logger.LogQuery(len(out))

	return out
}

// QueryItems returns the association records of all entries whose geometry
// intersects the rectangle, boundary inclusive. Records carry payloads only
// where one was attached.
func (idx *Index[C, G, T]) QueryItems(rect geom.Rect[C]) []store.Item[G, T] {
	start := time.Now()

	idx.mu.RLock()
	hits := idx.tree.QueryIDs(rect)
	out := make([]store.Item[G, T], 0, len(hits))
	for _, id := range hits {
		if item, ok := idx.store.ByID(id); ok {
			out = append(out, item)
		}
	}
	idx.mu.RUnlock()

	idx.metrics.RecordQuery(len(out), time.Since(start))
	idx.logger.LogQuery(len(out))

	return out
}

// QueryCoords returns the identifiers and flattened coordinates of all
// entries whose geometry intersects the rectangle: x,y pairs for point
// indexes, minx,miny,maxx,maxy quadruples for rectangle indexes. The two
// slices are parallel.
func (idx *Index[C, G, T]) QueryCoords(rect geom.Rect[C]) ([]uint64, []C) {
	start := time.Now()

	idx.mu.RLock()
	hits := idx.tree.Query(rect)
	ids := make([]uint64, 0, len(hits))
	coords := make([]C, 0, len(hits)*coordArity[C, G]())
	for _, e := range hits {
		ids = append(ids, e.ID)
		coords = appendGeomCoords[C, G](coords, e.Geom)
	}
	idx.mu.RUnlock()

	idx.metrics.RecordQuery(len(ids), time.Since(start))
	idx.logger.LogQuery(len(ids))

	return ids, coords
}

// NearestNeighborsCoords returns the identifiers and flattened coordinates
// of the k entries closest to the query point, in ascending distance order.
// Buffer layout matches QueryCoords.
func (idx *Index[C, G, T]) NearestNeighborsCoords(p geom.Point[C], k int) ([]uint64, []C, error) {
	neighbors, err := idx.NearestNeighbors(p, k)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uint64, 0, len(neighbors))
	coords := make([]C, 0, len(neighbors)*coordArity[C, G]())
	for _, n := range neighbors {
		ids = append(ids, n.ID)
		coords = appendGeomCoords[C, G](coords, n.Geom)
	}

	return ids, coords, nil
}

// NeighborItem is a nearest-neighbor result joined with its association
// record.
type NeighborItem[C geom.Coord, G geom.Geometry[C, G], T comparable] struct {
	store.Item[G, T]

	// DistSq is the squared Euclidean distance from the query point.
	DistSq float64
}

// NearestNeighbor returns the entry closest to the query point, or false on
// an empty index. Distance ties break toward the lower identifier.
func (idx *Index[C, G, T]) NearestNeighbor(p geom.Point[C]) (quadtree.Neighbor[C, G], bool) {
	start := time.Now()

	idx.mu.RLock()
	n, ok := idx.tree.NearestNeighbor(p)
	idx.mu.RUnlock()

	idx.metrics.RecordKNN(1, time.Since(start), nil)

	return n, ok
}

// NearestNeighbors returns the k entries closest to the query point in
// ascending distance order, fewer when the index holds fewer than k
// entries. Distance ties break toward the lower identifier.
func (idx *Index[C, G, T]) NearestNeighbors(p geom.Point[C], k int) ([]quadtree.Neighbor[C, G], error) {
	start := time.Now()

	neighbors, err := idx.nearestNeighborsLocked(p, k)

	idx.metrics.RecordKNN(k, time.Since(start), err)
	idx.logger.LogKNN(k, len(neighbors), err)

	return neighbors, err
}

func (idx *Index[C, G, T]) nearestNeighborsLocked(p geom.Point[C], k int) ([]quadtree.Neighbor[C, G], error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.NearestNeighbors(p, k), nil
}

// NearestNeighborItem returns the closest entry joined with its association
// record.
func (idx *Index[C, G, T]) NearestNeighborItem(p geom.Point[C]) (NeighborItem[C, G, T], bool) {
	items, err := idx.NearestNeighborsItems(p, 1)
	if err != nil || len(items) == 0 {
		return NeighborItem[C, G, T]{}, false
	}
	return items[0], true
}

// NearestNeighborsItems returns the k closest entries joined with their
// association records.
func (idx *Index[C, G, T]) NearestNeighborsItems(p geom.Point[C], k int) ([]NeighborItem[C, G, T], error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	start := time.Now()

	idx.mu.RLock()
	neighbors := idx.tree.NearestNeighbors(p, k)
	out := make([]NeighborItem[C, G, T], 0, len(neighbors))
	for _, n := range neighbors {
		item, ok := idx.store.ByID(n.ID)
		if !ok {
			item = store.Item[G, T]{ID: n.ID, Geom: n.Geom}
		}
		out = append(out, NeighborItem[C, G, T]{Item: item, DistSq: n.DistSq})
	}
	idx.mu.RUnlock()

	idx.metrics.RecordKNN(k, time.Since(start), nil)
	idx.logger.LogKNN(k, len(out), nil)

	return out, nil
}

// Attach associates a payload with an existing entry, replacing any payload
// already attached. Requires object tracking; unknown identifiers return
// ErrNotFound.
func (idx *Index[C, G, T]) Attach(id uint64, obj T) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !idx.trackObjects {
		return ErrTrackingDisabled
	}

	item, ok := idx.store.ByID(id)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	item.Obj = obj
	item.HasObj = true
	idx.store.Add(item)

	return nil
}

// Get returns the payload attached to an entry. Requires object tracking;
// entries without a payload return ErrNotFound.
func (idx *Index[C, G, T]) Get(id uint64) (T, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var zero T

	if !idx.trackObjects {
		return zero, ErrTrackingDisabled
	}

	item, ok := idx.store.ByID(id)
	if !ok || !item.HasObj {
		return zero, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return item.Obj, nil
}

// Item returns the association record for an identifier.
func (idx *Index[C, G, T]) Item(id uint64) (store.Item[G, T], bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.store.ByID(id)
}

// IDsForObject returns all identifiers holding this exact payload
// reference, sorted ascending. Requires object tracking.
func (idx *Index[C, G, T]) IDsForObject(obj T) ([]uint64, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.trackObjects {
		return nil, ErrTrackingDisabled
	}

	return idx.store.IDsForObject(obj), nil
}

// AllItems returns the association records of every live entry, sorted by
// identifier.
func (idx *Index[C, G, T]) AllItems() []store.Item[G, T] {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.allItems()
}

// allItems collects records sorted by identifier. Caller must hold at least
// the read lock.
func (idx *Index[C, G, T]) allItems() []store.Item[G, T] {
	out := make([]store.Item[G, T], 0, idx.store.Len())
	for item := range idx.store.Items() {
		out = append(out, item)
	}

	slices.SortFunc(out, func(a, b store.Item[G, T]) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return out
}

// AllObjects returns every attached payload, ordered by identifier.
// Requires object tracking.
func (idx *Index[C, G, T]) AllObjects() ([]T, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.trackObjects {
		return nil, ErrTrackingDisabled
	}

	var out []T
	for _, item := range idx.allItems() {
		if item.HasObj {
			out = append(out, item.Obj)
		}
	}

	return out, nil
}

// Contains reports whether any entry exists with exactly this geometry.
func (idx *Index[C, G, T]) Contains(g G) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.Contains(g)
}

// Len returns the number of live entries.
func (idx *Index[C, G, T]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.Count()
}

// Bounds returns the coordinate universe fixed at construction.
func (idx *Index[C, G, T]) Bounds() geom.Rect[C] {
	return idx.tree.Bounds()
}

// Capacity returns the per-node entry capacity.
func (idx *Index[C, G, T]) Capacity() int {
	return idx.tree.Capacity()
}

// MaxDepth returns the subdivision ceiling in effect.
func (idx *Index[C, G, T]) MaxDepth() int {
	return idx.tree.MaxDepth()
}

// DType returns the coordinate encoding tag of this index.
func (idx *Index[C, G, T]) DType() geom.DType {
	return idx.tree.DType()
}

// NodeBounds returns the boundary rectangle of every node in the engine.
// Useful for visualization.
func (idx *Index[C, G, T]) NodeBounds() []geom.Rect[C] {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.tree.NodeBounds()
}

// Clear removes every entry while preserving bounds, capacity and max
// depth. With resetIDs, sparse auto-assignment restarts at the configured
// start identifier; without it, the counter keeps advancing so cleared
// identifiers are never reissued. Dense identifier assignment always
// restarts at 0.
func (idx *Index[C, G, T]) Clear(resetIDs bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.tree.Clear()
	idx.store.Clear()
	idx.live.Clear()

	if resetIDs && idx.ids != nil {
		idx.ids = alloc.NewMonotonic(idx.startID)
	}
}

func (idx *Index[C, G, T]) outOfBounds(g G) error {
	return &ErrOutOfBounds{
		Geom:   fmt.Sprintf("%v", g),
		Bounds: fmt.Sprintf("%v", idx.tree.Bounds()),
	}
}
