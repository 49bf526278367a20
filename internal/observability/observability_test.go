package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("refresh complete", "records", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "refresh complete", entry["msg"])
	assert.Equal(t, "site-reconciliation", entry["service"])
	assert.InDelta(t, 12, entry["records"], 0)
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("row parsed", "row", 3)

	assert.Contains(t, buf.String(), "msg=\"row parsed\"")
	assert.Contains(t, buf.String(), "row=3")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	for _, c := range m.collectors() {
		require.NoError(t, reg.Register(c))
	}

	m.RecordsByCategory.WithLabelValues("discrepant").Set(3)
	m.Refreshes.WithLabelValues("success").Inc()

	assert.InDelta(t, 3, testutil.ToFloat64(m.RecordsByCategory.WithLabelValues("discrepant")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Refreshes.WithLabelValues("success")), 0)
}
