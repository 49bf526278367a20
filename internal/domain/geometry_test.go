package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPoint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Point
		ok   bool
	}{
		{"canonical", "POINT (4.9 52.3)", Point{Lat: 52.3, Lon: 4.9}, true},
		{"no space before paren", "POINT(4.9 52.3)", Point{Lat: 52.3, Lon: 4.9}, true},
		{"extra whitespace", "  POINT ( 5.0   51.0 ) ", Point{Lat: 51.0, Lon: 5.0}, true},
		{"negative", "POINT (-97.7431 30.2672)", Point{Lat: 30.2672, Lon: -97.7431}, true},
		{"scientific", "POINT (4.9e0 5.23e1)", Point{Lat: 52.3, Lon: 4.9}, true},
		{"ewkt srid prefix", "SRID=4326;POINT (4.9 52.3)", Point{Lat: 52.3, Lon: 4.9}, true},
		{"ewkt no space", "SRID=4326;POINT(5.0 51.0)", Point{Lat: 51.0, Lon: 5.0}, true},
		{"empty", "", Point{}, false},
		{"ewkt non numeric", "SRID=4326;POINT (x y)", Point{}, false},
		{"point empty", "POINT EMPTY", Point{}, false},
		{"lowercase", "point (4.9 52.3)", Point{}, false},
		{"linestring", "LINESTRING (4.9 52.3, 5.0 51.0)", Point{}, false},
		{"multipoint", "MULTIPOINT ((4.9 52.3))", Point{}, false},
		{"three coordinates", "POINT Z (4.9 52.3 1.0)", Point{}, false},
		{"three tokens", "POINT (4.9 52.3 1.0)", Point{}, false},
		{"non numeric", "POINT (abc def)", Point{}, false},
		{"nan", "POINT (NaN 52.3)", Point{}, false},
		{"infinite", "POINT (4.9 Inf)", Point{}, false},
		{"latitude out of range", "POINT (4.9 152.3)", Point{}, false},
		{"swapped beyond range", "POINT (52.3 190)", Point{}, false},
		{"missing paren", "POINT (4.9 52.3", Point{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPoint(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want.Lat, got.Lat, 1e-9)
				assert.InDelta(t, tt.want.Lon, got.Lon, 1e-9)
			} else {
				assert.Equal(t, Point{}, got)
			}
		})
	}
}

func TestExtractPoint_Idempotent(t *testing.T) {
	p1, ok1 := ExtractPoint("POINT (4.9 52.3)")
	p2, ok2 := ExtractPoint("POINT (4.9 52.3)")

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, p1, p2)
}

func TestResolveLocation(t *testing.T) {
	t.Run("database geometry wins", func(t *testing.T) {
		p, src := ResolveLocation("POINT (4.9 52.3)", "POINT (5.0 51.0)")
		require.NotNil(t, p)
		assert.Equal(t, Point{Lat: 52.3, Lon: 4.9}, *p)
		assert.Equal(t, GeoSourceDB, src)
	})

	t.Run("falls back when database geometry absent", func(t *testing.T) {
		p, src := ResolveLocation("", "POINT (5.0 51.0)")
		require.NotNil(t, p)
		assert.Equal(t, Point{Lat: 51.0, Lon: 5.0}, *p)
		assert.Equal(t, GeoSourceGoogle, src)
	})

	t.Run("falls back when database geometry malformed", func(t *testing.T) {
		p, src := ResolveLocation("POINT (x y)", "POINT (5.0 51.0)")
		require.NotNil(t, p)
		assert.Equal(t, Point{Lat: 51.0, Lon: 5.0}, *p)
		assert.Equal(t, GeoSourceGoogle, src)
	})

	t.Run("both absent", func(t *testing.T) {
		p, src := ResolveLocation("", "garbage")
		assert.Nil(t, p)
		assert.Equal(t, GeoSourceNone, src)
	})
}
