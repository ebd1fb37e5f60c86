package vecload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hupe1980/vecload/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicMetricsCollector(t *testing.T) {
	var m BasicMetricsCollector

	m.RecordRows("a_train", 10)
	m.RecordRows("a_test", 5)
	m.RecordTable("a_train", 10, 100, 2*time.Second, nil)
	m.RecordTable("a_test", 5, 50, 4*time.Second, errors.New("boom"))
	m.RecordExport(15, time.Second, nil)
	m.RecordExport(99, time.Second, errors.New("boom"))

	stats := m.GetStats()
	assert.Equal(t, int64(15), stats.RowsLoaded)
	assert.Equal(t, int64(2), stats.TableCount)
	assert.Equal(t, int64(1), stats.TableErrors)
	assert.Equal(t, int64(150), stats.TableBytes)
	assert.Equal(t, (3 * time.Second).Nanoseconds(), stats.TableAvgNanos)
	assert.Equal(t, int64(2), stats.ExportCount)
	assert.Equal(t, int64(1), stats.ExportErrors)
	assert.Equal(t, int64(15), stats.ExportRows)
	assert.Equal(t, time.Second.Nanoseconds(), stats.ExportAvgNanos)
}

func TestBasicMetricsCollector_Empty(t *testing.T) {
	var m BasicMetricsCollector
	assert.Equal(t, BasicMetricsStats{}, m.GetStats())
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).
		WithRunID("run-1").
		WithTable("ds_train")

	l.LogTable(context.Background(), postgres.Result{Table: "ds_train", Rows: 2, Bytes: 87}, nil)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "table loaded", line["msg"])
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, "INFO", line["level"])
	assert.EqualValues(t, 87, line["bytes"])
}

func TestLogger_ErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.NewJSONHandler(&buf, nil))

	l.LogFile(context.Background(), "train.fvecs", 0, errors.New("disk full"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "disk full", line["error"])
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
