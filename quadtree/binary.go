package quadtree

// Binary serialization for the engine. The format is a little-endian stream:
// fixed header, bounds, then every stored entry as identifier plus
// coordinates. Decoding re-derives the tree topology deterministically by
// re-inserting entries in stream order, so round-trips answer every query
// identically without pinning the internal node layout.

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/quadgo/geom"
)

const (
	// engineMagic identifies quadgo engine byte streams (ASCII: "QTRE").
	engineMagic = 0x51545245
	// engineVersion is the current engine stream version (v1.0.0).
	engineVersion = 0x00010000

	geomKindPoint = 1
	geomKindRect  = 2
)

var (
	ErrInvalidMagic   = errors.New("invalid engine magic number")
	ErrInvalidVersion = errors.New("unsupported engine stream version")
	ErrInvalidGeom    = errors.New("geometry kind mismatch")
	ErrCorruptStream  = errors.New("corrupt engine stream")
)

// streamHeader is the fixed-size header at the start of every engine stream.
type streamHeader struct {
	Magic      uint32
	Version    uint32
	DType      uint8
	GeomKind   uint8
	Padding    [2]byte
	Capacity   uint32
	MaxDepth   uint32
	EntryCount uint64
}

func geomKind[C geom.Coord, G geom.Geometry[C, G]]() uint8 {
	var zero G
	switch any(zero).(type) {
	case geom.Point[C]:
		return geomKindPoint
	case geom.Rect[C]:
		return geomKindRect
	default:
		return 0
	}
}

func coordsPerGeom(kind uint8) int {
	if kind == geomKindPoint {
		return 2
	}
	return 4
}

func appendCoords[C geom.Coord, G geom.Geometry[C, G]](dst []C, g G) []C {
	switch v := any(g).(type) {
	case geom.Point[C]:
		return append(dst, v.X, v.Y)
	case geom.Rect[C]:
		return append(dst, v.MinX, v.MinY, v.MaxX, v.MaxY)
	default:
		return dst
	}
}

func geomFromCoords[C geom.Coord, G geom.Geometry[C, G]](kind uint8, buf []C) G {
	var g G
	switch kind {
	case geomKindPoint:
		g, _ = any(geom.Point[C]{X: buf[0], Y: buf[1]}).(G)
	case geomKindRect:
		g, _ = any(geom.Rect[C]{MinX: buf[0], MinY: buf[1], MaxX: buf[2], MaxY: buf[3]}).(G)
	}
	return g
}

// Encode writes the engine state to w.
func (t *Tree[C, G]) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)

	header := streamHeader{
		Magic:      engineMagic,
		Version:    engineVersion,
		DType:      uint8(geom.DTypeOf[C]()),
		GeomKind:   geomKind[C, G](),
		Capacity:   uint32(t.capacity),
		MaxDepth:   uint32(t.maxDepth),
		EntryCount: uint64(t.count),
	}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return err
	}

	bounds := []C{t.bounds.MinX, t.bounds.MinY, t.bounds.MaxX, t.bounds.MaxY}
	if err := binary.Write(bw, binary.LittleEndian, bounds); err != nil {
		return err
	}

	coords := make([]C, 0, 4)
	for i := range t.nodes {
		for _, e := range t.nodes[i].entries {
			if err := binary.Write(bw, binary.LittleEndian, e.ID); err != nil {
				return err
			}
			coords = appendCoords[C, G](coords[:0], e.Geom)
			if err := binary.Write(bw, binary.LittleEndian, coords); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// Bytes returns the engine state as an opaque byte slice.
func (t *Tree[C, G]) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reconstructs an engine from a stream produced by Encode. The
// coordinate encoding and geometry kind of the stream must match the
// instantiated type parameters; mismatches are rejected before any state is
// built.
func Decode[C geom.Coord, G geom.Geometry[C, G]](r io.Reader) (*Tree[C, G], error) {
	br := bufio.NewReader(r)

	var header streamHeader
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, err
	}
	if header.Magic != engineMagic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, header.Magic)
	}
	if header.Version != engineVersion {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, header.Version)
	}
	if want := geom.DTypeOf[C](); geom.DType(header.DType) != want {
		return nil, &geom.ErrDTypeMismatch{Expected: want, Actual: geom.DType(header.DType)}
	}
	if want := geomKind[C, G](); header.GeomKind != want {
		return nil, fmt.Errorf("%w: expected kind %d, got %d", ErrInvalidGeom, want, header.GeomKind)
	}

	bounds := make([]C, 4)
	if err := binary.Read(br, binary.LittleEndian, bounds); err != nil {
		return nil, err
	}

	t, err := New[C, G](geom.Rect[C]{MinX: bounds[0], MinY: bounds[1], MaxX: bounds[2], MaxY: bounds[3]}, func(o *Options) {
		o.Capacity = int(header.Capacity)
		o.MaxDepth = int(header.MaxDepth)
	})
	if err != nil {
		return nil, err
	}

	nc := coordsPerGeom(header.GeomKind)
	coords := make([]C, nc)
	for range header.EntryCount {
		var id uint64
		if err := binary.Read(br, binary.LittleEndian, &id); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, coords); err != nil {
			return nil, err
		}
		if !t.Insert(id, geomFromCoords[C, G](header.GeomKind, coords)) {
			return nil, fmt.Errorf("%w: entry %d outside bounds", ErrCorruptStream, id)
		}
	}

	return t, nil
}

// FromBytes reconstructs an engine from a byte slice produced by Bytes.
func FromBytes[C geom.Coord, G geom.Geometry[C, G]](data []byte) (*Tree[C, G], error) {
	return Decode[C, G](bytes.NewReader(data))
}
