package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result     GeocodingResult
	err        error
	calls      int
	lastStreet string
	lastCity   string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, street, city string) (GeocodingResult, error) {
	m.calls++
	m.lastStreet, m.lastCity = street, city
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func unlocatedRecord() SiteRecord {
	return SiteRecord{
		Key:             "site-1",
		StreetDB:        "Damrak 1",
		CityDB:          "Amsterdam",
		InvalidGeometry: true,
	}
}

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	result := EnrichWithGeocoding(context.Background(), unlocatedRecord(), nil, discardLogger())

	assert.Nil(t, result.Location)
	assert.Equal(t, GeoSourceNone, result.GeoSource)
}

func TestEnrichWithGeocoding_FillsMissingLocation(t *testing.T) {
	geo := &mockGeocoder{
		result: GeocodingResult{
			Lat:              52.3745,
			Lon:              4.8970,
			FormattedAddress: "Damrak 1, 1012 LG Amsterdam, Netherlands",
			PlaceName:        "Damrak 1",
			Confidence:       0.95,
		},
	}

	result := EnrichWithGeocoding(context.Background(), unlocatedRecord(), geo, discardLogger())

	require.NotNil(t, result.Location)
	assert.Equal(t, 52.3745, result.Location.Lat)
	assert.Equal(t, 4.8970, result.Location.Lon)
	assert.Equal(t, GeoSourceGeocoded, result.GeoSource)
	assert.Equal(t, "Damrak 1, 1012 LG Amsterdam, Netherlands", result.FormattedAddress)
	assert.Equal(t, 0.95, result.GeoConfidence)
	assert.True(t, result.InvalidGeometry, "sheet geometry is still invalid")
	assert.Equal(t, "Damrak 1", geo.lastStreet)
	assert.Equal(t, "Amsterdam", geo.lastCity)
}

func TestEnrichWithGeocoding_SkipsLocatedRecord(t *testing.T) {
	geo := &mockGeocoder{}
	rec := unlocatedRecord()
	rec.Location = &Point{Lat: 52.3, Lon: 4.9}
	rec.GeoSource = GeoSourceDB

	result := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, GeoSourceDB, result.GeoSource)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichWithGeocoding_FallsBackToProviderAddress(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{Lat: 51.0, Lon: 5.0}}
	rec := SiteRecord{StreetGoogle: "Markt 3", CityGoogle: "Eindhoven"}

	result := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	require.NotNil(t, result.Location)
	assert.Equal(t, "Markt 3", geo.lastStreet)
	assert.Equal(t, "Eindhoven", geo.lastCity)
}

func TestEnrichWithGeocoding_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}

	result := EnrichWithGeocoding(context.Background(), unlocatedRecord(), geo, discardLogger())

	assert.Nil(t, result.Location)
	assert.Equal(t, GeoSourceNone, result.GeoSource)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichWithGeocoding_NoAddress(t *testing.T) {
	geo := &mockGeocoder{}

	result := EnrichWithGeocoding(context.Background(), SiteRecord{Key: "site-2"}, geo, discardLogger())

	assert.Nil(t, result.Location)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{}}

	result := EnrichWithGeocoding(context.Background(), unlocatedRecord(), geo, discardLogger())

	assert.Nil(t, result.Location)
	assert.Equal(t, GeoSourceNone, result.GeoSource)
}
