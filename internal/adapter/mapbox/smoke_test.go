//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/site-reconciliation-service/internal/observability"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Damrak 1", "Amsterdam")
	require.NoError(t, err)

	assert.InDelta(t, 52.37, result.Lat, 0.1, "lat should be near Amsterdam")
	assert.InDelta(t, 4.89, result.Lon, 0.1, "lon should be near Amsterdam")
	assert.Contains(t, result.FormattedAddress, "Amsterdam")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ForwardGeocode_NoMatch(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "zzzzqqqq 99999", "xxxxyyyy")
	require.NoError(t, err)
	assert.Empty(t, result.FormattedAddress)
}
