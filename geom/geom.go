// Package geom provides the coordinate model shared by all quadgo indexes:
// generic points and axis-aligned rectangles over the four supported
// coordinate encodings, plus the containment, intersection and distance
// predicates the engine is built on.
package geom

// Coord is the set of supported coordinate encodings. All geometry inserted
// into one index instance uses the same encoding; mixing encodings within one
// instance is rejected at the type level.
type Coord interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Point is a 2D point.
type Point[C Coord] struct {
	X C
	Y C
}

// Pt is a shorthand constructor for Point.
func Pt[C Coord](x, y C) Point[C] {
	return Point[C]{X: x, Y: y}
}

// Rect is an axis-aligned rectangle (MinX, MinY, MaxX, MaxY).
type Rect[C Coord] struct {
	MinX C
	MinY C
	MaxX C
	MaxY C
}

// R is a shorthand constructor for Rect.
func R[C Coord](minX, minY, maxX, maxY C) Rect[C] {
	return Rect[C]{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Valid reports whether min <= max on both axes.
func (r Rect[C]) Valid() bool {
	return r.MinX <= r.MaxX && r.MinY <= r.MaxY
}

// ContainsPoint reports whether p lies inside r, inclusive of the boundary.
func (r Rect[C]) ContainsPoint(p Point[C]) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// ContainsRect reports whether o lies fully inside r, inclusive of touching
// edges.
func (r Rect[C]) ContainsRect(o Rect[C]) bool {
	return o.MinX >= r.MinX && o.MaxX <= r.MaxX && o.MinY >= r.MinY && o.MaxY <= r.MaxY
}

// Intersects reports whether r and o overlap, inclusive of touching edges.
func (r Rect[C]) Intersects(o Rect[C]) bool {
	return r.MinX <= o.MaxX && r.MaxX >= o.MinX && r.MinY <= o.MaxY && r.MaxY >= o.MinY
}

// center returns the subdivision midpoint. For integer encodings the
// midpoint truncates toward MinX/MinY, which keeps quadrants a partition.
func (r Rect[C]) center() (C, C) {
	return r.MinX + (r.MaxX-r.MinX)/2, r.MinY + (r.MaxY-r.MinY)/2
}

// Quadrant returns the i-th quadrant of r. Index layout follows the
// subdivision rule (yHigh<<1)|xHigh:
//
//	0: low x, low y    1: high x, low y
//	2: low x, high y   3: high x, high y
func (r Rect[C]) Quadrant(i int) Rect[C] {
	cx, cy := r.center()
	switch i {
	case 0:
		return Rect[C]{MinX: r.MinX, MinY: r.MinY, MaxX: cx, MaxY: cy}
	case 1:
		return Rect[C]{MinX: cx, MinY: r.MinY, MaxX: r.MaxX, MaxY: cy}
	case 2:
		return Rect[C]{MinX: r.MinX, MinY: cy, MaxX: cx, MaxY: r.MaxY}
	default:
		return Rect[C]{MinX: cx, MinY: cy, MaxX: r.MaxX, MaxY: r.MaxY}
	}
}

// QuadrantFor returns the index of the single quadrant of r that fully
// contains b, or -1 if b straddles a subdivision boundary. The choice is
// deterministic: the quadrant is derived from b's min corner with ties on the
// midline resolved toward the high half.
func (r Rect[C]) QuadrantFor(b Rect[C]) int {
	cx, cy := r.center()
	q := 0
	if b.MinX >= cx {
		q |= 1
	}
	if b.MinY >= cy {
		q |= 2
	}
	if r.Quadrant(q).ContainsRect(b) {
		return q
	}
	return -1
}

// DistSqToPoint returns the squared Euclidean distance from p to the nearest
// edge or interior of r. The result is 0 when p lies inside r.
func (r Rect[C]) DistSqToPoint(p Point[C]) float64 {
	x := clamp(p.X, r.MinX, r.MaxX)
	y := clamp(p.Y, r.MinY, r.MaxY)
	dx := float64(p.X) - float64(x)
	dy := float64(p.Y) - float64(y)
	return dx*dx + dy*dy
}

func clamp[C Coord](v, lo, hi C) C {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Geometry is the constraint satisfied by the geometry types the engine can
// index: Point[C] and Rect[C]. Bounds is the axis-aligned bounding rectangle
// (for rectangles, the rectangle itself) and DistSq the squared Euclidean
// distance from a query point. Geometries are comparable so exact-match
// deletion can use ==.
type Geometry[C Coord, G any] interface {
	comparable
	Bounds() Rect[C]
	DistSq(p Point[C]) float64
}

// Bounds returns the degenerate rectangle covering only p.
func (p Point[C]) Bounds() Rect[C] {
	return Rect[C]{MinX: p.X, MinY: p.Y, MaxX: p.X, MaxY: p.Y}
}

// DistSq returns the squared Euclidean distance between p and q.
func (p Point[C]) DistSq(q Point[C]) float64 {
	dx := float64(p.X) - float64(q.X)
	dy := float64(p.Y) - float64(q.Y)
	return dx*dx + dy*dy
}

// Bounds returns r itself.
func (r Rect[C]) Bounds() Rect[C] { return r }

// DistSq returns the squared Euclidean distance from p to the nearest edge or
// interior of r.
func (r Rect[C]) DistSq(p Point[C]) float64 { return r.DistSqToPoint(p) }
