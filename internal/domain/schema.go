package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sheet column names.
const (
	ColName              = "name"
	ColStreetDB          = "street_db"
	ColCityDB            = "city_db"
	ColStreetGoogle      = "street_google"
	ColCityGoogle        = "city_google"
	ColExternalReference = "external_reference"
	ColPlaceID           = "placeId"
	ColConnectorMatch    = "connector_match"
	ColPowerMatch        = "power_match"
	ColMissingInGoogle   = "missing_in_google"
	ColMissingInDB       = "missing_in_db"
	ColGeometryDB        = "geometry_db"
	ColGeometryGoogle    = "geometry_google"
)

// RequiredColumns must be present in the sheet header. Cells may be empty.
var RequiredColumns = []string{
	ColName, ColStreetDB, ColCityDB, ColStreetGoogle, ColCityGoogle,
	ColExternalReference, ColPlaceID, ColConnectorMatch, ColPowerMatch,
	ColMissingInGoogle, ColMissingInDB, ColGeometryDB, ColGeometryGoogle,
}

// ErrMissingColumns is returned when a sheet header lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// ErrDuplicateColumns is returned when a required column appears more than once.
var ErrDuplicateColumns = errors.New("duplicate required columns")

// CheckColumn declares an optional boolean correctness column.
type CheckColumn struct {
	Column string `yaml:"column" json:"column"`
	Label  string `yaml:"label" json:"label"`
}

// Schema configures the optional parts of row parsing.
type Schema struct {
	Checks []CheckColumn `yaml:"checks"`
	// NullSentinels extends the built-in "", "NULL", "N/A" identifier sentinels.
	NullSentinels []string `yaml:"null_sentinels"`
}

// DefaultSchema tracks the correctness checks present in the reconciliation sheet.
func DefaultSchema() Schema {
	return Schema{
		Checks: []CheckColumn{
			{Column: "coordinates_correct", Label: "Coordinates correct"},
			{Column: "phone_number_correct", Label: "Phone number correct"},
			{Column: "website_correct", Label: "Website correct"},
		},
	}
}

// ValidateHeader reports any required columns absent from header, or
// present more than once. Check columns are optional; missing ones read as
// false.
func ValidateHeader(header []string) error {
	present := make(map[string]int, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)]++
	}
	var missing, dup []string
	for _, c := range RequiredColumns {
		switch n := present[c]; {
		case n == 0:
			missing = append(missing, c)
		case n > 1:
			dup = append(dup, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(dup) > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateColumns, strings.Join(dup, ", "))
	}
	return nil
}

func (s Schema) isNullSentinel(v string) bool {
	for _, n := range s.NullSentinels {
		if strings.EqualFold(v, strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}
