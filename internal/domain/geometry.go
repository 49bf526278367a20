package domain

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// pointRe finds a WKT point anywhere in the cell, e.g. "POINT (4.9041 52.3676)"
// or the EWKT form "SRID=4326;POINT (4.9041 52.3676)" -> lon=4.9041, lat=52.3676.
var pointRe = regexp.MustCompile(`\bPOINT\s*\(\s*([^\s()]+)\s+([^\s()]+)\s*\)`)

// ExtractPoint parses the first "POINT (<lon> <lat>)" token of a geometry
// string. It returns false for blank input, any other WKT shape, tokens that
// are not finite floats, or coordinates outside the WGS-84 range.
func ExtractPoint(geometry string) (Point, bool) {
	if !strings.Contains(geometry, "POINT") {
		return Point{}, false
	}

	matches := pointRe.FindStringSubmatch(geometry)
	if len(matches) != 3 {
		return Point{}, false
	}

	lon, errLon := parseCoordinate(matches[1])
	lat, errLat := parseCoordinate(matches[2])
	if errLon != nil || errLat != nil {
		return Point{}, false
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Point{}, false
	}
	return Point{Lat: lat, Lon: lon}, true
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

// ResolveLocation tries the database geometry first and falls back to the
// map provider geometry. It returns nil and GeoSourceNone when neither parses.
func ResolveLocation(geometryDB, geometryGoogle string) (*Point, GeoSource) {
	if p, ok := ExtractPoint(geometryDB); ok {
		return &p, GeoSourceDB
	}
	if p, ok := ExtractPoint(geometryGoogle); ok {
		return &p, GeoSourceGoogle
	}
	return nil, GeoSourceNone
}
