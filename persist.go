package quadgo

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/quadgo/alloc"
	"github.com/hupe1980/quadgo/blobstore"
	"github.com/hupe1980/quadgo/codec"
	"github.com/hupe1980/quadgo/geom"
	"github.com/hupe1980/quadgo/quadtree"
	"github.com/hupe1980/quadgo/snapshot"
	"github.com/hupe1980/quadgo/store"
)

// storeHeader is the fixed-size header of the snapshot store section. It
// records the identifier regime so a restored index resumes allocation
// where the saved one left off.
type storeHeader struct {
	Dense        uint8
	TrackObjects uint8
	Padding      [6]byte
	StartID      uint64 // configured first auto-assigned identifier (sparse)
	NextID       uint64 // allocator resume point
	PayloadCount uint64
}

// SaveToWriter writes a snapshot of the index to w.
//
// With includeObjects, attached payloads are serialized with the configured
// codec and the snapshot is marked payload-bearing; readers must then opt in
// explicitly. Requires object tracking when includeObjects is set.
func (idx *Index[C, G, T]) SaveToWriter(w io.Writer, includeObjects bool) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if includeObjects && !idx.trackObjects {
		return ErrTrackingDisabled
	}

	engine, err := idx.tree.Bytes()
	if err != nil {
		return fmt.Errorf("encode engine: %w", err)
	}

	section, err := idx.encodeStoreSection(includeObjects)
	if err != nil {
		return err
	}

	h := snapshot.Header{
		CodecName:      idx.codec.Name(),
		Compression:    idx.compression,
		IncludeObjects: includeObjects,
	}

	return snapshot.Write(w, h, engine, section)
}

func (idx *Index[C, G, T]) encodeStoreSection(includeObjects bool) ([]byte, error) {
	h := storeHeader{
		StartID: idx.startID,
	}
	if idx.trackObjects {
		h.TrackObjects = 1
	}
	if idx.dense != nil {
		h.Dense = 1
		h.NextID = idx.dense.Tail()
	} else {
		h.NextID = idx.ids.Peek()
	}

	var payloads []store.Item[G, T]
	if includeObjects {
		for _, item := range idx.allItems() {
			if item.HasObj {
				payloads = append(payloads, item)
			}
		}
	}
	h.PayloadCount = uint64(len(payloads))

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("encode store header: %w", err)
	}

	for _, item := range payloads {
		data, err := idx.codec.Marshal(item.Obj)
		if err != nil {
			return nil, fmt.Errorf("encode payload for id %d: %w", item.ID, err)
		}

		if err := binary.Write(&buf, binary.LittleEndian, item.ID); err != nil {
			return nil, err
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(data))); err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// ToBytes returns a snapshot of the index as a byte slice.
func (idx *Index[C, G, T]) ToBytes(includeObjects bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := idx.SaveToWriter(&buf, includeObjects); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveToFile writes a snapshot to a file, going through a temp file and
// rename so readers never observe a partially written snapshot.
func (idx *Index[C, G, T]) SaveToFile(path string, includeObjects bool) error {
	err := idx.saveToFile(path, includeObjects)
	idx.logger.LogSnapshot(path, err)
	return err
}

func (idx *Index[C, G, T]) saveToFile(path string, includeObjects bool) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	if err := idx.SaveToWriter(tmp, includeObjects); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// SaveToStore writes a snapshot to a blob store under the given name.
func (idx *Index[C, G, T]) SaveToStore(ctx context.Context, bs blobstore.BlobStore, name string, includeObjects bool) error {
	data, err := idx.ToBytes(includeObjects)
	if err == nil {
		err = bs.Put(ctx, name, data)
	}

	idx.logger.LogSnapshot(name, err)

	return err
}

// LoadOptions configures a snapshot load.
type LoadOptions struct {
	// Logger is the structured logger for the restored index.
	Logger *Logger

	// Metrics is the metrics collector for the restored index.
	Metrics MetricsCollector
}

// NewFromReader restores an index from a snapshot.
//
// The type parameters must match the saved index: a coordinate encoding
// mismatch fails with geom.ErrDTypeMismatch, a geometry kind mismatch with
// quadtree.ErrInvalidGeom. Snapshots carrying payloads are refused with
// ErrPayloadNotAllowed unless allowObjects is true.
func NewFromReader[C geom.Coord, G geom.Geometry[C, G], T comparable](r io.Reader, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, G, T], error) {
	opts := LoadOptions{
		Logger:  NoopLogger(),
		Metrics: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	h, engine, section, err := snapshot.Read(r, allowObjects)
	if err != nil {
		return nil, translateError(err)
	}

	tree, err := quadtree.FromBytes[C, G](engine)
	if err != nil {
		return nil, translateError(err)
	}

	sr := bytes.NewReader(section)

	var sh storeHeader
	if err := binary.Read(sr, binary.LittleEndian, &sh); err != nil {
		return nil, fmt.Errorf("read store header: %w", err)
	}

	c, known := codec.ByName(h.CodecName)
	if !known {
		if sh.PayloadCount > 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, h.CodecName)
		}
		c = codec.Default
	}

	idx := &Index[C, G, T]{
		tree:         tree,
		live:         roaring64.New(),
		trackObjects: sh.TrackObjects != 0,
		startID:      sh.StartID,
		codec:        c,
		compression:  h.Compression,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
	}

	if sh.Dense != 0 {
		ds := store.NewDenseStore[G, T]()
		idx.dense = ds
		idx.store = ds
	} else {
		idx.store = store.NewMapStore[G, T]()
		idx.ids = alloc.NewMonotonic(sh.NextID)
	}

	for e := range tree.Entries() {
		idx.store.Add(store.Item[G, T]{ID: e.ID, Geom: e.Geom})
		idx.live.Add(e.ID)
	}

	for i := uint64(0); i < sh.PayloadCount; i++ {
		var (
			id     uint64
			length uint32
		)
		if err := binary.Read(sr, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("read payload header: %w", err)
		}
		if err := binary.Read(sr, binary.LittleEndian, &length); err != nil {
			return nil, fmt.Errorf("read payload header: %w", err)
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(sr, data); err != nil {
			return nil, fmt.Errorf("read payload for id %d: %w", id, err)
		}

		item, ok := idx.store.ByID(id)
		if !ok {
			return nil, fmt.Errorf("snapshot: payload for unknown id %d", id)
		}

		var obj T
		if err := c.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("decode payload for id %d: %w", id, err)
		}

		item.Obj = obj
		item.HasObj = true
		idx.store.Add(item)
	}

	return idx, nil
}

// FromBytes restores an index from snapshot bytes.
func FromBytes[C geom.Coord, G geom.Geometry[C, G], T comparable](data []byte, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, G, T], error) {
	return NewFromReader[C, G, T](bytes.NewReader(data), allowObjects, optFns...)
}

// PointsFromBytes restores a point index from snapshot bytes.
func PointsFromBytes[C geom.Coord, T comparable](data []byte, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, geom.Point[C], T], error) {
	return FromBytes[C, geom.Point[C], T](data, allowObjects, optFns...)
}

// RectsFromBytes restores a rectangle index from snapshot bytes.
func RectsFromBytes[C geom.Coord, T comparable](data []byte, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, geom.Rect[C], T], error) {
	return FromBytes[C, geom.Rect[C], T](data, allowObjects, optFns...)
}

// NewFromFile restores an index from a snapshot file.
func NewFromFile[C geom.Coord, G geom.Geometry[C, G], T comparable](path string, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, G, T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewFromReader[C, G, T](f, allowObjects, optFns...)
}

// NewFromStore restores an index from a blob store.
func NewFromStore[C geom.Coord, G geom.Geometry[C, G], T comparable](ctx context.Context, bs blobstore.BlobStore, name string, allowObjects bool, optFns ...func(*LoadOptions)) (*Index[C, G, T], error) {
	data, err := bs.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	return FromBytes[C, G, T](data, allowObjects, optFns...)
}
