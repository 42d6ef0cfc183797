package quadtree

import (
	"math/rand"
	"testing"

	"github.com/hupe1980/quadgo/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNeighbor(t *testing.T) {
	t.Run("EmptyIndex", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		_, ok := tree.NearestNeighbor(geom.Pt[float64](50, 50))
		assert.False(t, ok)
	})

	t.Run("SingleEntry", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)
		require.True(t, tree.Insert(7, geom.Pt[float64](10, 10)))

		n, ok := tree.NearestNeighbor(geom.Pt[float64](90, 90))
		require.True(t, ok)
		assert.Equal(t, uint64(7), n.ID)
		assert.Equal(t, geom.Pt[float64](10, 10), n.Geom)
	})

	t.Run("PicksClosest", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 2)

		require.True(t, tree.Insert(1, geom.Pt[float64](10, 10)))
		require.True(t, tree.Insert(2, geom.Pt[float64](50, 50)))
		require.True(t, tree.Insert(3, geom.Pt[float64](90, 90)))

		n, ok := tree.NearestNeighbor(geom.Pt[float64](52, 48))
		require.True(t, ok)
		assert.Equal(t, uint64(2), n.ID)
	})
}

func TestNearestNeighbors(t *testing.T) {
	t.Run("SortedByDistance", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 1000, 1000), 4)

		rng := rand.New(rand.NewSource(42))
		for i := 0; i < 300; i++ {
			p := geom.Pt(rng.Float64()*1000, rng.Float64()*1000)
			require.True(t, tree.Insert(uint64(i), p))
		}

		query := geom.Pt[float64](500, 500)
		neighbors := tree.NearestNeighbors(query, 10)
		require.Len(t, neighbors, 10)

		for i := 1; i < len(neighbors); i++ {
			assert.LessOrEqual(t, neighbors[i-1].DistSq, neighbors[i].DistSq, "non-decreasing distance")
		}
	})

	t.Run("MatchesLinearScan", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 1000, 1000), 8)

		rng := rand.New(rand.NewSource(7))
		pts := make([]geom.Point[float64], 200)
		for i := range pts {
			pts[i] = geom.Pt(rng.Float64()*1000, rng.Float64()*1000)
			require.True(t, tree.Insert(uint64(i), pts[i]))
		}

		query := geom.Pt[float64](123, 456)
		neighbors := tree.NearestNeighbors(query, 5)
		require.Len(t, neighbors, 5)

		// Brute-force the best distance for comparison.
		best := -1.0
		for _, p := range pts {
			d := p.DistSq(query)
			if best < 0 || d < best {
				best = d
			}
		}
		assert.InDelta(t, best, neighbors[0].DistSq, 1e-9)
	})

	t.Run("KLargerThanCount", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		require.True(t, tree.Insert(1, geom.Pt[float64](10, 10)))
		require.True(t, tree.Insert(2, geom.Pt[float64](20, 20)))

		neighbors := tree.NearestNeighbors(geom.Pt[float64](0, 0), 7)
		assert.Len(t, neighbors, 2, "returns all entries, not an error")
	})

	t.Run("TiesBreakByAscendingID", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		// Two entries at the same coordinates, equidistant from any query.
		require.True(t, tree.Insert(9, geom.Pt[float64](10, 10)))
		require.True(t, tree.Insert(4, geom.Pt[float64](10, 10)))

		neighbors := tree.NearestNeighbors(geom.Pt[float64](0, 0), 1)
		require.Len(t, neighbors, 1)
		assert.Equal(t, uint64(4), neighbors[0].ID)

		neighbors = tree.NearestNeighbors(geom.Pt[float64](0, 0), 2)
		require.Len(t, neighbors, 2)
		assert.Equal(t, uint64(4), neighbors[0].ID)
		assert.Equal(t, uint64(9), neighbors[1].ID)
	})

	t.Run("RectDistanceUsesNearestEdge", func(t *testing.T) {
		tree, err := New[float64, geom.Rect[float64]](geom.R[float64](0, 0, 100, 100))
		require.NoError(t, err)

		require.True(t, tree.Insert(1, geom.R[float64](40, 40, 60, 60)))
		require.True(t, tree.Insert(2, geom.R[float64](80, 80, 90, 90)))

		// Query inside rect 1: distance zero.
		n, ok := tree.NearestNeighbor(geom.Pt[float64](50, 50))
		require.True(t, ok)
		assert.Equal(t, uint64(1), n.ID)
		assert.Zero(t, n.DistSq)

		// Closer to rect 2's edge than rect 1's.
		n, ok = tree.NearestNeighbor(geom.Pt[float64](78, 78))
		require.True(t, ok)
		assert.Equal(t, uint64(2), n.ID)
	})
}
