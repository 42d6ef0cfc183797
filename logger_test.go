package quadgo

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/hupe1980/quadgo/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("OperationsAreLogged", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))

		idx, err := Points[float64, string](geom.R[float64](0, 0, 100, 100)).
			Logger(logger).
			Build()
		require.NoError(t, err)

		_, err = idx.Insert(geom.Pt[float64](10, 10))
		require.NoError(t, err)

		assert.Contains(t, buf.String(), "insert completed")
		assert.Contains(t, buf.String(), "id=1")
	})

	t.Run("FailuresLogAtErrorLevel", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		idx, err := Points[float64, string](geom.R[float64](0, 0, 100, 100)).
			Logger(logger).
			Build()
		require.NoError(t, err)

		_, err = idx.Insert(geom.Pt[float64](500, 500))
		require.Error(t, err)

		assert.Contains(t, buf.String(), "insert failed")
	})

	t.Run("NoopDiscardsEverything", func(t *testing.T) {
		logger := NoopLogger()

		logger.LogInsert(1, nil)
		logger.LogQuery(10)
		logger.LogSnapshot("snap", assert.AnError)
	})

	t.Run("WithID", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))

		logger.WithID(7).Debug("tagged")
		assert.Contains(t, buf.String(), "id=7")
	})
}
