package quadgo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/quadgo/blobstore"
	"github.com/hupe1980/quadgo/geom"
	"github.com/hupe1980/quadgo/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Run("WithoutObjects", func(t *testing.T) {
		idx := newPointIndex(t)

		for i := 0; i < 50; i++ {
			_, err := idx.Insert(geom.Pt[float64](float64(i*17%1000), float64(i*31%1000)))
			require.NoError(t, err)
		}

		data, err := idx.ToBytes(false)
		require.NoError(t, err)

		restored, err := PointsFromBytes[float64, string](data, false)
		require.NoError(t, err)

		assert.Equal(t, idx.Len(), restored.Len())
		assert.Equal(t, idx.Bounds(), restored.Bounds())

		probe := geom.R[float64](0, 0, 500, 500)
		assert.ElementsMatch(t, idx.QueryIDs(probe), restored.QueryIDs(probe))
	})

	t.Run("AutoAssignmentResumes", func(t *testing.T) {
		idx := newPointIndex(t)

		for i := 0; i < 3; i++ {
			_, err := idx.Insert(geom.Pt[float64](float64(i), float64(i)))
			require.NoError(t, err)
		}

		data, err := idx.ToBytes(false)
		require.NoError(t, err)

		restored, err := PointsFromBytes[float64, string](data, false)
		require.NoError(t, err)

		id, err := restored.Insert(geom.Pt[float64](9, 9))
		require.NoError(t, err)
		assert.Equal(t, uint64(4), id)
	})

	t.Run("WithObjects", func(t *testing.T) {
		idx := newPointIndex(t, tracked)

		a, err := idx.InsertObject(geom.Pt[float64](10, 10), "alpha")
		require.NoError(t, err)
		b, err := idx.Insert(geom.Pt[float64](20, 20)) // no payload
		require.NoError(t, err)

		data, err := idx.ToBytes(true)
		require.NoError(t, err)

		restored, err := PointsFromBytes[float64, string](data, true)
		require.NoError(t, err)

		obj, err := restored.Get(a)
		require.NoError(t, err)
		assert.Equal(t, "alpha", obj)

		_, err = restored.Get(b)
		require.ErrorIs(t, err, ErrNotFound)

		// Reverse lookup survives the round-trip.
		ids, err := restored.IDsForObject("alpha")
		require.NoError(t, err)
		assert.Equal(t, []uint64{a}, ids)
	})

	t.Run("PayloadsRequireOptIn", func(t *testing.T) {
		idx := newPointIndex(t, tracked)

		_, err := idx.InsertObject(geom.Pt[float64](10, 10), "alpha")
		require.NoError(t, err)

		data, err := idx.ToBytes(true)
		require.NoError(t, err)

		_, err = PointsFromBytes[float64, string](data, false)
		require.ErrorIs(t, err, ErrPayloadNotAllowed)
	})

	t.Run("IncludeObjectsRequiresTracking", func(t *testing.T) {
		idx := newPointIndex(t)

		_, err := idx.ToBytes(true)
		require.ErrorIs(t, err, ErrTrackingDisabled)
	})

	t.Run("DenseRegimeSurvives", func(t *testing.T) {
		idx, err := Points[float64, string](geom.R[float64](0, 0, 1000, 1000)).
			DenseIDs().
			Build()
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			_, err := idx.Insert(geom.Pt[float64](float64(i+1), float64(i+1)))
			require.NoError(t, err)
		}
		require.NoError(t, idx.DeleteByID(1))

		data, err := idx.ToBytes(false)
		require.NoError(t, err)

		restored, err := PointsFromBytes[float64, string](data, false)
		require.NoError(t, err)
		assert.Equal(t, 2, restored.Len())

		// The released identifier stays reusable after restore.
		id, err := restored.Insert(geom.Pt[float64](9, 9))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), id)

		// Dense regime still rejects custom identifiers.
		err = restored.InsertWithID(geom.Pt[float64](8, 8), 42)
		require.ErrorIs(t, err, ErrCustomIDUnsupported)
	})

	t.Run("RectIndex", func(t *testing.T) {
		idx, err := Rects[int64, string](geom.R[int64](0, 0, 1<<20, 1<<20)).Build()
		require.NoError(t, err)

		_, err = idx.Insert(geom.R[int64](100, 100, 200, 200))
		require.NoError(t, err)

		data, err := idx.ToBytes(false)
		require.NoError(t, err)

		restored, err := RectsFromBytes[int64, string](data, false)
		require.NoError(t, err)
		assert.True(t, restored.Contains(geom.R[int64](100, 100, 200, 200)))
	})

	t.Run("CompressionVariants", func(t *testing.T) {
		for _, compression := range []snapshot.Compression{snapshot.CompressionNone, snapshot.CompressionZstd, snapshot.CompressionLZ4} {
			t.Run(compression.String(), func(t *testing.T) {
				idx, err := Points[float64, string](geom.R[float64](0, 0, 1000, 1000)).
					Compression(compression).
					Build()
				require.NoError(t, err)

				for i := 0; i < 100; i++ {
					_, err := idx.Insert(geom.Pt[float64](float64(i), float64(i)))
					require.NoError(t, err)
				}

				data, err := idx.ToBytes(false)
				require.NoError(t, err)

				restored, err := PointsFromBytes[float64, string](data, false)
				require.NoError(t, err)
				assert.Equal(t, 100, restored.Len())
			})
		}
	})

	t.Run("DTypeMismatch", func(t *testing.T) {
		idx := newPointIndex(t)

		data, err := idx.ToBytes(false)
		require.NoError(t, err)

		_, err = PointsFromBytes[float32, string](data, false)

		var mismatch *geom.ErrDTypeMismatch
		require.ErrorAs(t, err, &mismatch)
	})

	t.Run("CorruptData", func(t *testing.T) {
		_, err := PointsFromBytes[float64, string](make([]byte, 128), false)
		require.Error(t, err)
	})
}

func TestSnapshotFile(t *testing.T) {
	idx := newPointIndex(t, tracked)

	id, err := idx.InsertObject(geom.Pt[float64](10, 10), "persisted")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.qsnp")
	require.NoError(t, idx.SaveToFile(path, true))

	restored, err := NewFromFile[float64, geom.Point[float64], string](path, true)
	require.NoError(t, err)

	obj, err := restored.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "persisted", obj)

	t.Run("MissingFile", func(t *testing.T) {
		_, err := NewFromFile[float64, geom.Point[float64], string](filepath.Join(t.TempDir(), "nope"), false)
		require.Error(t, err)
	})
}

func TestSnapshotBlobStore(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	idx := newPointIndex(t)

	for i := 0; i < 10; i++ {
		_, err := idx.Insert(geom.Pt[float64](float64(i*10), float64(i*10)))
		require.NoError(t, err)
	}

	require.NoError(t, idx.SaveToStore(ctx, bs, "snapshots/current", false))

	names, err := bs.List(ctx, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, []string{"snapshots/current"}, names)

	restored, err := NewFromStore[float64, geom.Point[float64], string](ctx, bs, "snapshots/current", false)
	require.NoError(t, err)
	assert.Equal(t, 10, restored.Len())

	t.Run("MissingBlob", func(t *testing.T) {
		_, err := NewFromStore[float64, geom.Point[float64], string](ctx, bs, "snapshots/nope", false)
		require.ErrorIs(t, err, blobstore.ErrNotFound)
	})
}

func TestLoadOptions(t *testing.T) {
	idx := newPointIndex(t)

	_, err := idx.Insert(geom.Pt[float64](10, 10))
	require.NoError(t, err)

	data, err := idx.ToBytes(false)
	require.NoError(t, err)

	mc := &BasicMetricsCollector{}
	restored, err := PointsFromBytes[float64, string](data, false, func(o *LoadOptions) {
		o.Metrics = mc
		o.Logger = NoopLogger()
	})
	require.NoError(t, err)

	restored.QueryIDs(restored.Bounds())
	assert.Equal(t, int64(1), mc.GetStats().QueryCount)
}
