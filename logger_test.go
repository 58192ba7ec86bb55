package vecscan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("LevelFiltering", func(t *testing.T) {
		var buf bytes.Buffer
		l := newStreamLogger(&buf, slog.LevelInfo, true).WithDimension(4)

		l.LogAdd(ctx, 1, false, nil)
		l.LogQuery(ctx, 3, 2, true, nil)
		l.LogSave(ctx, 2, 128, nil)
		l.LogQuery(ctx, 0, 0, false, ErrInvalidK)

		recs := decodeRecords(t, &buf)
		require.Len(t, recs, 2)

		assert.Equal(t, "save", recs[0]["op"])
		assert.Equal(t, "INFO", recs[0]["level"])
		assert.InDelta(t, 4.0, recs[0]["dimension"], 0)
		assert.InDelta(t, 128.0, recs[0]["bytes"], 0)

		assert.Equal(t, "query", recs[1]["op"])
		assert.Equal(t, "ERROR", recs[1]["level"])
		assert.Equal(t, "n must be positive", recs[1]["error"])
	})

	t.Run("Debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := newStreamLogger(&buf, slog.LevelDebug, true)

		l.LogAdd(ctx, 7, true, nil)
		l.LogLoad(ctx, 0, 0, errors.New("boom"))

		recs := decodeRecords(t, &buf)
		require.Len(t, recs, 2)
		assert.Equal(t, "DEBUG", recs[0]["level"])
		assert.InDelta(t, 7.0, recs[0]["row"], 0)
		assert.Equal(t, true, recs[0]["borrowed"])
		assert.Equal(t, "boom", recs[1]["error"])
		assert.NotContains(t, recs[1], "entries")
	})

	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer
		newStreamLogger(&buf, slog.LevelInfo, false).LogSave(ctx, 1, 24, nil)
		assert.Contains(t, buf.String(), "op=save")
		assert.Contains(t, buf.String(), "bytes=24")
	})

	t.Run("Noop", func(t *testing.T) {
		assert.NotPanics(t, func() { NoopLogger().LogLoad(ctx, 1, 1, nil) })
		assert.NotNil(t, NewLogger(nil).Logger)
	})
}
