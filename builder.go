// Package quadgo provides an embedded 2D spatial index for Go.
//
// This file implements geometry-specific fluent builder APIs for creating and
// configuring Index instances. Builders are immutable - each method returns a
// new builder with the updated configuration.
package quadgo

import (
	"fmt"

	"github.com/hupe1980/quadgo/codec"
	"github.com/hupe1980/quadgo/geom"
	"github.com/hupe1980/quadgo/snapshot"
)

// =============================================================================
// Points Builder (Immutable)
// =============================================================================

// Points creates a builder for a point index covering the given bounds.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents accidental
// state sharing.
//
// Example:
//
//	idx, err := quadgo.Points[float32, string](geom.R[float32](0, 0, 1000, 1000)).
//	    Capacity(32).
//	    MaxDepth(12).
//	    TrackObjects().
//	    Build()
func Points[C geom.Coord, T comparable](bounds geom.Rect[C]) PointsBuilder[C, T] {
	return PointsBuilder[C, T]{cfg: defaultConfig(bounds)}
}

// PointsBuilder is an immutable fluent builder for point indexes.
// Each method returns a new builder with the updated configuration.
type PointsBuilder[C geom.Coord, T comparable] struct {
	cfg config[C]
}

// Capacity sets the number of entries a node holds before it subdivides.
// Default: 16.
func (b PointsBuilder[C, T]) Capacity(n int) PointsBuilder[C, T] {
	b.cfg.capacity = n
	return b
}

// MaxDepth sets the hard ceiling on subdivision recursion. Nodes at the
// ceiling overflow their capacity rather than splitting further, which keeps
// duplicate coordinates from recursing forever.
func (b PointsBuilder[C, T]) MaxDepth(n int) PointsBuilder[C, T] {
	b.cfg.maxDepth = n
	return b
}

// StartID sets the first auto-assigned identifier. Requires sparse
// identifier mode (the default). Default: 1.
func (b PointsBuilder[C, T]) StartID(id uint64) PointsBuilder[C, T] {
	b.cfg.startID = id
	b.cfg.startIDSet = true
	return b
}

// TrackObjects enables payload association: Insert accepts WithObject,
// Attach becomes available, and snapshots may include payloads.
func (b PointsBuilder[C, T]) TrackObjects() PointsBuilder[C, T] {
	b.cfg.trackObjects = true
	return b
}

// DenseIDs switches identifier assignment to the dense regime: identifiers
// are assigned from 0 and released identifiers are reused, so the
// association store can index records by identifier directly. Implies
// TrackObjects. Caller-supplied identifiers are rejected in this mode.
func (b PointsBuilder[C, T]) DenseIDs() PointsBuilder[C, T] {
	b.cfg.denseIDs = true
	b.cfg.trackObjects = true
	return b
}

// Logger sets the structured logger for operation tracing.
func (b PointsBuilder[C, T]) Logger(l *Logger) PointsBuilder[C, T] {
	b.cfg.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b PointsBuilder[C, T]) Metrics(mc MetricsCollector) PointsBuilder[C, T] {
	b.cfg.metrics = mc
	return b
}

// Codec sets the payload codec used when snapshots include payloads.
func (b PointsBuilder[C, T]) Codec(c codec.Codec) PointsBuilder[C, T] {
	b.cfg.codec = c
	return b
}

// Compression sets the snapshot body compression scheme.
func (b PointsBuilder[C, T]) Compression(c snapshot.Compression) PointsBuilder[C, T] {
	b.cfg.compression = c
	return b
}

// Build creates the point index.
func (b PointsBuilder[C, T]) Build() (*Index[C, geom.Point[C], T], error) {
	return newIndex[C, geom.Point[C], T](b.cfg)
}

// =============================================================================
// Rects Builder (Immutable)
// =============================================================================

// Rects creates a builder for a rectangle index covering the given bounds.
//
// Example:
//
//	idx, err := quadgo.Rects[int32, *Sprite](geom.R[int32](0, 0, 4096, 4096)).
//	    DenseIDs().
//	    Build()
func Rects[C geom.Coord, T comparable](bounds geom.Rect[C]) RectsBuilder[C, T] {
	return RectsBuilder[C, T]{cfg: defaultConfig(bounds)}
}

// RectsBuilder is an immutable fluent builder for rectangle indexes.
// Each method returns a new builder with the updated configuration.
type RectsBuilder[C geom.Coord, T comparable] struct {
	cfg config[C]
}

// Capacity sets the number of entries a node holds before it subdivides.
// Default: 16.
func (b RectsBuilder[C, T]) Capacity(n int) RectsBuilder[C, T] {
	b.cfg.capacity = n
	return b
}

// MaxDepth sets the hard ceiling on subdivision recursion.
func (b RectsBuilder[C, T]) MaxDepth(n int) RectsBuilder[C, T] {
	b.cfg.maxDepth = n
	return b
}

// StartID sets the first auto-assigned identifier. Requires sparse
// identifier mode (the default). Default: 1.
func (b RectsBuilder[C, T]) StartID(id uint64) RectsBuilder[C, T] {
	b.cfg.startID = id
	b.cfg.startIDSet = true
	return b
}

// TrackObjects enables payload association.
func (b RectsBuilder[C, T]) TrackObjects() RectsBuilder[C, T] {
	b.cfg.trackObjects = true
	return b
}

// DenseIDs switches identifier assignment to the dense regime.
// Implies TrackObjects.
func (b RectsBuilder[C, T]) DenseIDs() RectsBuilder[C, T] {
	b.cfg.denseIDs = true
	b.cfg.trackObjects = true
	return b
}

// Logger sets the structured logger for operation tracing.
func (b RectsBuilder[C, T]) Logger(l *Logger) RectsBuilder[C, T] {
	b.cfg.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b RectsBuilder[C, T]) Metrics(mc MetricsCollector) RectsBuilder[C, T] {
	b.cfg.metrics = mc
	return b
}

// Codec sets the payload codec used when snapshots include payloads.
func (b RectsBuilder[C, T]) Codec(c codec.Codec) RectsBuilder[C, T] {
	b.cfg.codec = c
	return b
}

// Compression sets the snapshot body compression scheme.
func (b RectsBuilder[C, T]) Compression(c snapshot.Compression) RectsBuilder[C, T] {
	b.cfg.compression = c
	return b
}

// Build creates the rectangle index.
func (b RectsBuilder[C, T]) Build() (*Index[C, geom.Rect[C], T], error) {
	return newIndex[C, geom.Rect[C], T](b.cfg)
}

// =============================================================================
// Shared configuration
// =============================================================================

type config[C geom.Coord] struct {
	bounds       geom.Rect[C]
	capacity     int
	maxDepth     int
	startID      uint64
	startIDSet   bool
	denseIDs     bool
	trackObjects bool
	logger       *Logger
	metrics      MetricsCollector
	codec        codec.Codec
	compression  snapshot.Compression
}

func defaultConfig[C geom.Coord](bounds geom.Rect[C]) config[C] {
	return config[C]{
		bounds:   bounds,
		startID:  1,
		logger:   NoopLogger(),
		metrics:  NoopMetricsCollector{},
		codec:    codec.Default,
		capacity: 0, // engine default
	}
}

func (c config[C]) validate() error {
	if c.denseIDs && c.startIDSet {
		return fmt.Errorf("start id requires sparse identifier mode")
	}
	return nil
}
