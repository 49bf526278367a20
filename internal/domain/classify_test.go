package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		rec  SiteRecord
		want Category
	}{
		{"missing both ids", SiteRecord{MissingPlaceID: true, MissingExternalReference: true}, CategoryMissingInMapProvider},
		{"missing place id wins over matches", SiteRecord{MissingPlaceID: true, ConnectorMatch: true, PowerMatch: true}, CategoryMissingInMapProvider},
		{"missing external reference", SiteRecord{MissingExternalReference: true, ConnectorMatch: true, PowerMatch: true}, CategoryMissingInDatabase},
		{"all match", SiteRecord{ConnectorMatch: true, PowerMatch: true}, CategoryFullyCorrect},
		{"connector only", SiteRecord{ConnectorMatch: true}, CategoryDiscrepant},
		{"power only", SiteRecord{PowerMatch: true}, CategoryDiscrepant},
		{"nothing matches", SiteRecord{}, CategoryDiscrepant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rec))
		})
	}
}

func TestClassify_ExactlyOneCategory(t *testing.T) {
	for _, missingPlace := range []bool{false, true} {
		for _, missingRef := range []bool{false, true} {
			for _, conn := range []bool{false, true} {
				for _, power := range []bool{false, true} {
					c := Classify(SiteRecord{
						MissingPlaceID:           missingPlace,
						MissingExternalReference: missingRef,
						ConnectorMatch:           conn,
						PowerMatch:               power,
					})
					assert.True(t, c.Valid())
				}
			}
		}
	}
}

func TestCategory_Presentation(t *testing.T) {
	assert.Equal(t, "#3498db", CategoryMissingInMapProvider.Color())
	assert.Equal(t, "#9b59b6", CategoryMissingInDatabase.Color())
	assert.Equal(t, "#2ecc71", CategoryFullyCorrect.Color())
	assert.Equal(t, "#e74c3c", CategoryDiscrepant.Color())
	assert.Equal(t, "Fully Correct", CategoryFullyCorrect.Title())
	assert.False(t, Category("other").Valid())
}

func TestEnrichSiteRecord(t *testing.T) {
	fixedTime := time.Date(2024, 11, 4, 9, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	t.Run("database geometry", func(t *testing.T) {
		rec := EnrichSiteRecord(SiteRecord{
			GeometryDB:     "POINT (4.9 52.3)",
			ConnectorMatch: true,
			PowerMatch:     true,
		})

		require.NotNil(t, rec.Location)
		assert.Equal(t, 52.3, rec.Location.Lat)
		assert.Equal(t, 4.9, rec.Location.Lon)
		assert.Equal(t, GeoSourceDB, rec.GeoSource)
		assert.False(t, rec.InvalidGeometry)
		assert.Equal(t, CategoryFullyCorrect, rec.Category)
		assert.Equal(t, fixedTime, rec.LoadedAt)
		assert.Empty(t, rec.Issues)
	})

	t.Run("fallback geometry records issue for malformed primary", func(t *testing.T) {
		rec := EnrichSiteRecord(SiteRecord{
			Row:            4,
			GeometryDB:     "POINT (bad)",
			GeometryGoogle: "POINT (5.0 51.0)",
		})

		require.NotNil(t, rec.Location)
		assert.Equal(t, Point{Lat: 51.0, Lon: 5.0}, *rec.Location)
		assert.Equal(t, GeoSourceGoogle, rec.GeoSource)
		require.Len(t, rec.Issues, 1)
		assert.Equal(t, ColGeometryDB, rec.Issues[0].Field)
		assert.Equal(t, 4, rec.Issues[0].Row)
	})

	t.Run("no geometry", func(t *testing.T) {
		rec := EnrichSiteRecord(SiteRecord{MissingPlaceID: true})

		assert.Nil(t, rec.Location)
		assert.True(t, rec.InvalidGeometry)
		_, hasLat := rec.Latitude()
		_, hasLon := rec.Longitude()
		assert.False(t, hasLat)
		assert.False(t, hasLon)
		assert.Equal(t, CategoryMissingInMapProvider, rec.Category)
		assert.Empty(t, rec.Issues, "blank geometry is absent, not malformed")
	})
}
