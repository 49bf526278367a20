package domain

import (
	"sort"
	"time"
)

// CategoryCount is one bar of the summary chart.
type CategoryCount struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Color    string   `json:"color"`
	Count    int      `json:"count"`
}

// Summary aggregates a classified record set.
type Summary struct {
	Total             int             `json:"total"`
	Categories        []CategoryCount `json:"categories"`
	InvalidGeometry   int             `json:"invalid_geometry"`
	RecordsWithIssues int             `json:"records_with_issues"`
	LoadedAt          time.Time       `json:"loaded_at"`
}

// Count returns the number of records in category c.
func (s Summary) Count(c Category) int {
	for _, cc := range s.Categories {
		if cc.Category == c {
			return cc.Count
		}
	}
	return 0
}

// MapPoint is a plottable marker.
type MapPoint struct {
	Key       string    `json:"key"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Category  Category  `json:"category"`
	Color     string    `json:"color"`
	Hover     string    `json:"hover"`
	GeoSource GeoSource `json:"geo_source"`
}

// FlaggedRecord is a table row with the names of its failing checks.
type FlaggedRecord struct {
	Record  SiteRecord `json:"record"`
	Flagged bool       `json:"flagged"`
	Failing []string   `json:"failing,omitempty"`
}

// Report is everything a presentation layer needs for one dashboard render.
type Report struct {
	Summary              Summary         `json:"summary"`
	Records              []SiteRecord    `json:"records"`
	MissingInMapProvider []SiteRecord    `json:"missing_in_map_provider"`
	MissingInDatabase    []SiteRecord    `json:"missing_in_database"`
	Discrepancies        []FlaggedRecord `json:"discrepancies"`
	Correctness          []FlaggedRecord `json:"correctness"`
	MapPoints            []MapPoint      `json:"map_points"`
	InvalidGeometry      []SiteRecord    `json:"invalid_geometry"`
	Issues               []FieldIssue    `json:"issues"`
}

// BuildReport derives every dashboard view from a classified record set.
// Records are expected to have passed through EnrichSiteRecord.
func BuildReport(records []SiteRecord, loadedAt time.Time) Report {
	rep := Report{
		Records:              records,
		MissingInMapProvider: []SiteRecord{},
		MissingInDatabase:    []SiteRecord{},
		MapPoints:            []MapPoint{},
		InvalidGeometry:      []SiteRecord{},
		Issues:               []FieldIssue{},
	}
	if rep.Records == nil {
		rep.Records = []SiteRecord{}
	}

	counts := make(map[Category]int, len(Categories))
	var matched []SiteRecord
	withIssues := 0

	for _, r := range records {
		counts[r.Category]++

		switch r.Category {
		case CategoryMissingInMapProvider:
			rep.MissingInMapProvider = append(rep.MissingInMapProvider, r)
		case CategoryMissingInDatabase:
			rep.MissingInDatabase = append(rep.MissingInDatabase, r)
		default:
			matched = append(matched, r)
		}

		if r.InvalidGeometry {
			rep.InvalidGeometry = append(rep.InvalidGeometry, r)
		}
		if r.Location != nil {
			rep.MapPoints = append(rep.MapPoints, MapPoint{
				Key:       r.Key,
				Lat:       r.Location.Lat,
				Lon:       r.Location.Lon,
				Category:  r.Category,
				Color:     r.Category.Color(),
				Hover:     r.Label(),
				GeoSource: r.GeoSource,
			})
		}
		if len(r.Issues) > 0 {
			withIssues++
			rep.Issues = append(rep.Issues, r.Issues...)
		}
	}

	rep.Summary = Summary{
		Total:             len(records),
		InvalidGeometry:   len(rep.InvalidGeometry),
		RecordsWithIssues: withIssues,
		LoadedAt:          loadedAt,
	}
	for _, c := range Categories {
		rep.Summary.Categories = append(rep.Summary.Categories, CategoryCount{
			Category: c,
			Title:    c.Title(),
			Color:    c.Color(),
			Count:    counts[c],
		})
	}

	rep.Discrepancies = DiscrepancyTable(matched)
	rep.Correctness = CorrectnessTable(records)
	return rep
}

// DiscrepancyTable orders records present in both sources with failing checks
// first: ascending on connector_match, then power_match, then each named
// correctness check (false sorts before true). Ties keep input order.
func DiscrepancyTable(records []SiteRecord) []FlaggedRecord {
	out := make([]FlaggedRecord, 0, len(records))
	for _, r := range records {
		var failing []string
		if !r.ConnectorMatch {
			failing = append(failing, ColConnectorMatch)
		}
		if !r.PowerMatch {
			failing = append(failing, ColPowerMatch)
		}
		failing = append(failing, r.FailingChecks()...)
		out = append(out, FlaggedRecord{Record: r, Flagged: len(failing) > 0, Failing: failing})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessBools(discrepancyKey(out[i].Record), discrepancyKey(out[j].Record))
	})
	return out
}

// CorrectnessTable flags every record with at least one false correctness
// check, failing records first.
func CorrectnessTable(records []SiteRecord) []FlaggedRecord {
	out := make([]FlaggedRecord, 0, len(records))
	for _, r := range records {
		failing := r.FailingChecks()
		out = append(out, FlaggedRecord{Record: r, Flagged: len(failing) > 0, Failing: failing})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessBools(checkKey(out[i].Record), checkKey(out[j].Record))
	})
	return out
}

func discrepancyKey(r SiteRecord) []bool {
	return append([]bool{r.ConnectorMatch, r.PowerMatch}, checkKey(r)...)
}

func checkKey(r SiteRecord) []bool {
	key := make([]bool, len(r.Checks))
	for i, c := range r.Checks {
		key[i] = c.OK
	}
	return key
}

// lessBools compares lexicographically with false < true. The shorter slice
// is padded with true, so an absent check never sorts as failing.
func lessBools(a, b []bool) bool {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		ai, bi := true, true
		if i < len(a) {
			ai = a[i]
		}
		if i < len(b) {
			bi = b[i]
		}
		if ai != bi {
			return !ai
		}
	}
	return false
}
