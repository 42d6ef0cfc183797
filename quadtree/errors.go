package quadtree

import (
	"fmt"

	"github.com/hupe1980/quadgo/geom"
)

// ErrInvalidBounds indicates a universe rectangle with min > max on an axis.
type ErrInvalidBounds struct {
	Bounds string
}

func (e *ErrInvalidBounds) Error() string {
	return fmt.Sprintf("invalid bounds: %s", e.Bounds)
}

// ErrInvalidCapacity indicates a non-positive node capacity.
type ErrInvalidCapacity struct {
	Capacity int
}

func (e *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("invalid capacity: %d", e.Capacity)
}

// ErrInvalidMaxDepth indicates a negative subdivision ceiling.
type ErrInvalidMaxDepth struct {
	MaxDepth int
}

func (e *ErrInvalidMaxDepth) Error() string {
	return fmt.Sprintf("invalid max depth: %d", e.MaxDepth)
}

func boundsString[C geom.Coord](b geom.Rect[C]) string {
	return fmt.Sprintf("(%v, %v, %v, %v)", b.MinX, b.MinY, b.MaxX, b.MaxY)
}
