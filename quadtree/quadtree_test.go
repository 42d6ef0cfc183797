package quadtree

import (
	"fmt"
	"testing"

	"github.com/hupe1980/quadgo/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPointTree(t *testing.T, bounds geom.Rect[float64], capacity int) *Tree[float64, geom.Point[float64]] {
	t.Helper()

	tree, err := New[float64, geom.Point[float64]](bounds, func(o *Options) {
		o.Capacity = capacity
	})
	require.NoError(t, err)

	return tree
}

func TestNew(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		tree, err := New[float64, geom.Point[float64]](geom.R[float64](0, 0, 100, 100))
		require.NoError(t, err)

		assert.Equal(t, 16, tree.Capacity())
		assert.Equal(t, DefaultMaxDepth, tree.MaxDepth())
		assert.Equal(t, geom.DTypeF64, tree.DType())
	})

	t.Run("InvalidBounds", func(t *testing.T) {
		_, err := New[float64, geom.Point[float64]](geom.R[float64](10, 0, 0, 10))

		var boundsErr *ErrInvalidBounds
		require.ErrorAs(t, err, &boundsErr)
	})

	t.Run("InvalidCapacity", func(t *testing.T) {
		_, err := New[float64, geom.Point[float64]](geom.R[float64](0, 0, 10, 10), func(o *Options) {
			o.Capacity = 0
		})

		var capErr *ErrInvalidCapacity
		require.ErrorAs(t, err, &capErr)
	})

	t.Run("InvalidMaxDepth", func(t *testing.T) {
		_, err := New[float64, geom.Point[float64]](geom.R[float64](0, 0, 10, 10), func(o *Options) {
			o.MaxDepth = -1
		})

		var depthErr *ErrInvalidMaxDepth
		require.ErrorAs(t, err, &depthErr)
	})
}

func TestInsertAndQuery(t *testing.T) {
	t.Run("CountAndFullQueryAfterNInserts", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 1000, 1000), 8)

		const n = 500
		want := map[uint64]bool{}
		for i := 0; i < n; i++ {
			id := uint64(i)
			p := geom.Pt(float64(i%100)*10, float64(i/100)*37)
			require.True(t, tree.Insert(id, p))
			want[id] = true
		}

		require.Equal(t, n, tree.Count())

		got := map[uint64]bool{}
		for _, id := range tree.QueryIDs(tree.Bounds()) {
			got[id] = true
		}
		assert.Equal(t, want, got)
	})

	t.Run("OutOfBoundsRejectedWithoutStateChange", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		assert.False(t, tree.Insert(1, geom.Pt[float64](101, 50)))
		assert.False(t, tree.Insert(1, geom.Pt[float64](-1, 50)))
		assert.Zero(t, tree.Count())
	})

	t.Run("BoundaryPointsAccepted", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		assert.True(t, tree.Insert(1, geom.Pt[float64](0, 0)))
		assert.True(t, tree.Insert(2, geom.Pt[float64](100, 100)))
	})

	t.Run("TinyRectangleIsolation", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 1000, 1000), 4)

		require.True(t, tree.Insert(0, geom.Pt[float64](500, 500)))
		for i := 1; i <= 9; i++ {
			require.True(t, tree.Insert(uint64(i), geom.Pt(float64(i)*50, float64(i)*13)))
		}

		ids := tree.QueryIDs(geom.R[float64](499, 499, 501, 501))
		assert.Equal(t, []uint64{0}, ids)
	})

	t.Run("DuplicateCoordinatesScenario", func(t *testing.T) {
		// bounds (0,0,100,100), capacity 4, points at (10,10),(20,20),
		// (30,30),(10,10) with identifiers 0..3.
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		pts := []geom.Point[float64]{
			geom.Pt[float64](10, 10),
			geom.Pt[float64](20, 20),
			geom.Pt[float64](30, 30),
			geom.Pt[float64](10, 10),
		}
		for i, p := range pts {
			require.True(t, tree.Insert(uint64(i), p))
		}

		got := map[uint64]bool{}
		for _, e := range tree.Query(geom.R[float64](0, 0, 15, 15)) {
			got[e.ID] = true
			assert.Equal(t, geom.Pt[float64](10, 10), e.Geom)
		}
		require.Equal(t, map[uint64]bool{0: true, 3: true}, got)

		require.True(t, tree.Delete(0, geom.Pt[float64](10, 10)))

		ids := tree.QueryIDs(geom.R[float64](0, 0, 15, 15))
		assert.Equal(t, []uint64{3}, ids)
	})

	t.Run("DeepDuplicatesOverflowAtMaxDepth", func(t *testing.T) {
		tree, err := New[float64, geom.Point[float64]](geom.R[float64](0, 0, 100, 100), func(o *Options) {
			o.Capacity = 2
			o.MaxDepth = 4
		})
		require.NoError(t, err)

		// More identical points than capacity can never split apart; the
		// max-depth node must absorb them instead of recursing forever.
		for i := 0; i < 50; i++ {
			require.True(t, tree.Insert(uint64(i), geom.Pt[float64](33, 33)))
		}

		assert.Equal(t, 50, tree.Count())
		assert.Len(t, tree.QueryIDs(geom.R[float64](33, 33, 33, 33)), 50)
	})
}

func TestRectEntries(t *testing.T) {
	t.Run("SubdivisionNeverLosesEntries", func(t *testing.T) {
		tree, err := New[float64, geom.Rect[float64]](geom.R[float64](0, 0, 100, 100), func(o *Options) {
			o.Capacity = 10
		})
		require.NoError(t, err)

		first := geom.R[float64](10, 20, 30, 40)
		require.True(t, tree.Insert(0, first))

		for i := 1; i <= 2000; i++ {
			x := float64(i % 45)
			y := float64((i * 7) % 45)
			require.True(t, tree.Insert(uint64(i), geom.R(x, y, x+2, y+2)))
		}

		found := false
		for _, e := range tree.Query(first) {
			if e.ID == 0 && e.Geom == first {
				found = true
			}
		}
		assert.True(t, found, "first rectangle must survive subdivisions")
		assert.Equal(t, 2001, tree.Count())
	})

	t.Run("StraddlerStoredOnce", func(t *testing.T) {
		tree, err := New[float64, geom.Rect[float64]](geom.R[float64](0, 0, 100, 100), func(o *Options) {
			o.Capacity = 1
		})
		require.NoError(t, err)

		straddler := geom.R[float64](40, 40, 60, 60)
		require.True(t, tree.Insert(0, straddler))

		// Force subdivision around it.
		require.True(t, tree.Insert(1, geom.R[float64](1, 1, 2, 2)))
		require.True(t, tree.Insert(2, geom.R[float64](70, 70, 72, 72)))
		require.True(t, tree.Insert(3, geom.R[float64](5, 70, 7, 72)))

		count := 0
		for _, e := range tree.Query(geom.R[float64](0, 0, 100, 100)) {
			if e.ID == 0 {
				count++
			}
		}
		assert.Equal(t, 1, count, "straddling entry must be returned exactly once")
	})

	t.Run("TouchingEdgeMatches", func(t *testing.T) {
		tree, err := New[float64, geom.Rect[float64]](geom.R[float64](0, 0, 100, 100))
		require.NoError(t, err)

		require.True(t, tree.Insert(1, geom.R[float64](10, 10, 20, 20)))

		assert.Equal(t, []uint64{1}, tree.QueryIDs(geom.R[float64](20, 20, 30, 30)))
	})
}

func TestDelete(t *testing.T) {
	t.Run("ExactlyOnce", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		p := geom.Pt[float64](42, 42)
		require.True(t, tree.Insert(1, p))

		assert.True(t, tree.Delete(1, p))
		assert.False(t, tree.Delete(1, p), "second delete fails")
		assert.Zero(t, tree.Count())
	})

	t.Run("GeometryMismatchFails", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		require.True(t, tree.Insert(1, geom.Pt[float64](42, 42)))

		assert.False(t, tree.Delete(1, geom.Pt[float64](42, 43)), "stale coordinates must not fuzzy-match")
		assert.Equal(t, 1, tree.Count())
	})

	t.Run("IdentifierMismatchFails", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		require.True(t, tree.Insert(1, geom.Pt[float64](42, 42)))

		assert.False(t, tree.Delete(2, geom.Pt[float64](42, 42)))
		assert.Equal(t, 1, tree.Count())
	})
}

func TestUpdate(t *testing.T) {
	t.Run("MovesEntry", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		old := geom.Pt[float64](10, 10)
		updated := geom.Pt[float64](90, 90)
		require.True(t, tree.Insert(1, old))

		require.True(t, tree.Update(1, old, updated))

		assert.Empty(t, tree.QueryIDs(geom.R[float64](0, 0, 20, 20)))
		assert.Equal(t, []uint64{1}, tree.QueryIDs(geom.R[float64](80, 80, 100, 100)))
	})

	t.Run("FailedUpdateKeepsEntryRetrievable", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		old := geom.Pt[float64](10, 10)
		require.True(t, tree.Insert(1, old))

		require.False(t, tree.Update(1, old, geom.Pt[float64](200, 200)))

		assert.Equal(t, []uint64{1}, tree.QueryIDs(geom.R[float64](0, 0, 20, 20)), "entry stays at old geometry")
	})

	t.Run("MissingEntryFails", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		assert.False(t, tree.Update(1, geom.Pt[float64](10, 10), geom.Pt[float64](20, 20)))
	})
}

func TestInsertMany(t *testing.T) {
	t.Run("ContiguousIdentifiers", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		geoms := []geom.Point[float64]{
			geom.Pt[float64](10, 10),
			geom.Pt[float64](20, 20),
			geom.Pt[float64](30, 30),
		}

		last := tree.InsertMany(5, geoms)
		assert.Equal(t, uint64(7), last)
		assert.Equal(t, 3, tree.Count())
	})

	t.Run("StopsAtFirstOutOfBounds", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		geoms := []geom.Point[float64]{
			geom.Pt[float64](10, 10),
			geom.Pt[float64](20, 20),
			geom.Pt[float64](200, 200), // out of bounds
			geom.Pt[float64](30, 30),
		}

		last := tree.InsertMany(1, geoms)
		assert.Equal(t, uint64(2), last, "two entries committed before the failure")
		assert.Equal(t, 2, tree.Count())
	})

	t.Run("FirstGeometryFails", func(t *testing.T) {
		tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

		last := tree.InsertMany(5, []geom.Point[float64]{geom.Pt[float64](500, 500)})
		assert.Equal(t, uint64(4), last)
		assert.Zero(t, tree.Count())
	})
}

func TestClear(t *testing.T) {
	tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 2)

	for i := 0; i < 20; i++ {
		require.True(t, tree.Insert(uint64(i), geom.Pt(float64(i)*5, float64(i)*4)))
	}
	require.NotZero(t, tree.Count())

	tree.Clear()

	assert.Zero(t, tree.Count())
	assert.Empty(t, tree.QueryIDs(tree.Bounds()))

	// Reusable after clearing.
	require.True(t, tree.Insert(99, geom.Pt[float64](1, 1)))
	assert.Equal(t, []uint64{99}, tree.QueryIDs(tree.Bounds()))
}

func TestContains(t *testing.T) {
	tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 4)

	require.True(t, tree.Insert(1, geom.Pt[float64](10, 10)))

	assert.True(t, tree.Contains(geom.Pt[float64](10, 10)))
	assert.False(t, tree.Contains(geom.Pt[float64](10, 11)))
}

func TestEntries(t *testing.T) {
	tree := newPointTree(t, geom.R[float64](0, 0, 100, 100), 2)

	want := map[uint64]geom.Point[float64]{}
	for i := 0; i < 10; i++ {
		p := geom.Pt(float64(i)*9, float64(i)*7)
		require.True(t, tree.Insert(uint64(i), p))
		want[uint64(i)] = p
	}

	got := map[uint64]geom.Point[float64]{}
	for e := range tree.Entries() {
		got[e.ID] = e.Geom
	}
	assert.Equal(t, want, got)
}

func TestIntegerCoordinates(t *testing.T) {
	for _, run := range []struct {
		name string
		fn   func(t *testing.T)
	}{
		{name: "i32", fn: testIntegerTree[int32]},
		{name: "i64", fn: testIntegerTree[int64]},
	} {
		t.Run(run.name, run.fn)
	}
}

func testIntegerTree[C int32 | int64](t *testing.T) {
	tree, err := New[C, geom.Point[C]](geom.R[C](0, 0, 1000, 1000), func(o *Options) {
		o.Capacity = 4
	})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.True(t, tree.Insert(uint64(i), geom.Pt(C(i)*7%1000, C(i)*13%1000)), fmt.Sprintf("insert %d", i))
	}

	require.Equal(t, 100, tree.Count())
	assert.Len(t, tree.QueryIDs(tree.Bounds()), 100)
}
