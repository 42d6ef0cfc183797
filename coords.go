package quadgo

import "github.com/hupe1980/quadgo/geom"

// coordArity returns the number of coordinates per geometry in a flat
// buffer: 2 for points, 4 for rectangles.
func coordArity[C geom.Coord, G geom.Geometry[C, G]]() int {
	var zero G
	if _, ok := any(zero).(geom.Point[C]); ok {
		return 2
	}
	return 4
}

// geomAt builds a geometry from a flat coordinate buffer at offset i.
func geomAt[C geom.Coord, G geom.Geometry[C, G]](coords []C, i int) G {
	var zero G
	switch g := any(&zero).(type) {
	case *geom.Point[C]:
		g.X = coords[i]
		g.Y = coords[i+1]
	case *geom.Rect[C]:
		g.MinX = coords[i]
		g.MinY = coords[i+1]
		g.MaxX = coords[i+2]
		g.MaxY = coords[i+3]
	}
	return zero
}

// appendGeomCoords flattens a geometry onto a coordinate buffer.
func appendGeomCoords[C geom.Coord, G geom.Geometry[C, G]](dst []C, g G) []C {
	switch v := any(g).(type) {
	case geom.Point[C]:
		return append(dst, v.X, v.Y)
	case geom.Rect[C]:
		return append(dst, v.MinX, v.MinY, v.MaxX, v.MaxY)
	default:
		return dst
	}
}
