package domain

// Category is the mutually exclusive reconciliation state of a site.
type Category string

const (
	CategoryMissingInMapProvider Category = "missing_in_map_provider"
	CategoryMissingInDatabase    Category = "missing_in_database"
	CategoryFullyCorrect         Category = "fully_correct"
	CategoryDiscrepant           Category = "discrepant"
)

// Categories lists every category in classification priority order.
var Categories = []Category{
	CategoryMissingInMapProvider,
	CategoryMissingInDatabase,
	CategoryFullyCorrect,
	CategoryDiscrepant,
}

var categoryInfo = map[Category]struct{ title, color string }{
	CategoryMissingInMapProvider: {"Missing Location in Google Maps", "#3498db"},
	CategoryMissingInDatabase:    {"Missing Location in Database", "#9b59b6"},
	CategoryFullyCorrect:         {"Fully Correct", "#2ecc71"},
	CategoryDiscrepant:           {"Discrepant", "#e74c3c"},
}

// Title is the human-readable chart and legend label.
func (c Category) Title() string { return categoryInfo[c].title }

// Color is the map marker and chart color.
func (c Category) Color() string { return categoryInfo[c].color }

// Valid reports whether c is one of the four categories.
func (c Category) Valid() bool {
	_, ok := categoryInfo[c]
	return ok
}

// Classify assigns exactly one category, first matching rule wins:
//  1. no placeId -> missing in map provider
//  2. no external_reference -> missing in database
//  3. connector and power both match -> fully correct
//  4. anything else -> discrepant
//
// The same rule drives summary counts, map colors and table ordering.
func Classify(r SiteRecord) Category {
	switch {
	case r.MissingPlaceID:
		return CategoryMissingInMapProvider
	case r.MissingExternalReference:
		return CategoryMissingInDatabase
	case r.ConnectorMatch && r.PowerMatch:
		return CategoryFullyCorrect
	default:
		return CategoryDiscrepant
	}
}

// EnrichSiteRecord derives the location, geometry flags and category of a
// parsed record and stamps the load time.
func EnrichSiteRecord(r SiteRecord) SiteRecord {
	if r.GeometryDB != "" {
		if _, ok := ExtractPoint(r.GeometryDB); !ok {
			r.addIssue(ColGeometryDB, r.GeometryDB, "not a POINT geometry")
		}
	}
	if r.GeometryGoogle != "" {
		if _, ok := ExtractPoint(r.GeometryGoogle); !ok {
			r.addIssue(ColGeometryGoogle, r.GeometryGoogle, "not a POINT geometry")
		}
	}

	r.Location, r.GeoSource = ResolveLocation(r.GeometryDB, r.GeometryGoogle)
	r.InvalidGeometry = r.Location == nil
	r.Category = Classify(r)
	r.LoadedAt = clock.Now().UTC()
	return r
}
