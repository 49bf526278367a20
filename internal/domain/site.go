package domain

import (
	"fmt"
	"time"
)

// RawRow is one sheet row keyed by header name. All cells arrive as text.
type RawRow struct {
	Number int               // 1-based data row number, header excluded
	Cells  map[string]string // header -> cell
}

// Get returns the raw cell for a column and whether the column exists.
func (r RawRow) Get(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// Point is a WGS-84 coordinate parsed from a geometry string.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoSource labels where a record's location came from.
type GeoSource string

const (
	GeoSourceNone     GeoSource = ""
	GeoSourceDB       GeoSource = "db"
	GeoSourceGoogle   GeoSource = "google"
	GeoSourceGeocoded GeoSource = "geocoded"
)

// Check is a named boolean correctness check (e.g. "phone number correct").
type Check struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	OK    bool   `json:"ok"`
}

// FieldIssue records a field that could not be parsed. The field keeps its
// default value and the record stays in the batch.
type FieldIssue struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
	Err   string `json:"error"`
}

func (e FieldIssue) Error() string {
	return fmt.Sprintf("row %d: field %s: %s", e.Row, e.Field, e.Err)
}

// SiteRecord is the canonical, classified form of one sheet row.
type SiteRecord struct {
	Key string `json:"key"`
	Row int    `json:"row"`

	Name         string `json:"name"`
	StreetDB     string `json:"street_db"`
	CityDB       string `json:"city_db"`
	StreetGoogle string `json:"street_google"`
	CityGoogle   string `json:"city_google"`

	ExternalReference *string `json:"external_reference"`
	PlaceID           *string `json:"placeId"`

	ConnectorMatch  bool           `json:"connector_match"`
	PowerMatch      bool           `json:"power_match"`
	MissingInGoogle map[string]any `json:"missing_in_google"`
	MissingInDB     map[string]any `json:"missing_in_db"`
	Checks          []Check        `json:"checks,omitempty"`

	GeometryDB     string `json:"geometry_db,omitempty"`
	GeometryGoogle string `json:"geometry_google,omitempty"`

	// Derived fields.
	Location                 *Point    `json:"location,omitempty"`
	GeoSource                GeoSource `json:"geo_source,omitempty"`
	InvalidGeometry          bool      `json:"invalid_geometry"`
	MissingPlaceID           bool      `json:"missing_placeId"`
	MissingExternalReference bool      `json:"missing_external_reference"`
	Category                 Category  `json:"map_category"`

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`

	Issues   []FieldIssue `json:"issues,omitempty"`
	LoadedAt time.Time    `json:"loaded_at"`
}

// Latitude returns the latitude and whether a location is present.
func (r SiteRecord) Latitude() (float64, bool) {
	if r.Location == nil {
		return 0, false
	}
	return r.Location.Lat, true
}

// Longitude returns the longitude and whether a location is present.
func (r SiteRecord) Longitude() (float64, bool) {
	if r.Location == nil {
		return 0, false
	}
	return r.Location.Lon, true
}

// Label is the "<name> - <street>, <city>" string used for filtering and map hover text.
func (r SiteRecord) Label() string {
	return r.Name + " - " + r.StreetDB + ", " + r.CityDB
}

// ChecksPass reports whether every named correctness check is true.
func (r SiteRecord) ChecksPass() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// FailingChecks lists the names of correctness checks that are false.
func (r SiteRecord) FailingChecks() []string {
	var names []string
	for _, c := range r.Checks {
		if !c.OK {
			names = append(names, c.Name)
		}
	}
	return names
}
