package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// builtinNullSentinels normalize identifier cells to absent. Compared after
// trimming and case-folding.
var builtinNullSentinels = []string{"", "NULL", "N/A"}

// ParseSiteRow converts a raw sheet row into a SiteRecord. It never rejects a
// row: unparseable fields keep their defaults and are listed in Issues.
// Derived location and category fields are filled by ResolveLocation and
// Classify (see EnrichSiteRecord).
func ParseSiteRow(row RawRow, schema Schema) SiteRecord {
	cell := func(col string) string {
		v, _ := row.Get(col)
		return v
	}

	rec := SiteRecord{
		Row:            row.Number,
		Name:           NormalizeText(cell(ColName)),
		StreetDB:       NormalizeText(cell(ColStreetDB)),
		CityDB:         NormalizeText(cell(ColCityDB)),
		StreetGoogle:   NormalizeText(cell(ColStreetGoogle)),
		CityGoogle:     NormalizeText(cell(ColCityGoogle)),
		GeometryDB:     strings.TrimSpace(cell(ColGeometryDB)),
		GeometryGoogle: strings.TrimSpace(cell(ColGeometryGoogle)),
	}

	rec.ExternalReference = schema.NormalizeID(cell(ColExternalReference))
	rec.PlaceID = schema.NormalizeID(cell(ColPlaceID))
	rec.MissingExternalReference = rec.ExternalReference == nil
	rec.MissingPlaceID = rec.PlaceID == nil

	rec.ConnectorMatch = rec.parseBoolField(ColConnectorMatch, cell(ColConnectorMatch))
	rec.PowerMatch = rec.parseBoolField(ColPowerMatch, cell(ColPowerMatch))
	rec.MissingInGoogle = rec.parseMappingField(ColMissingInGoogle, cell(ColMissingInGoogle))
	rec.MissingInDB = rec.parseMappingField(ColMissingInDB, cell(ColMissingInDB))

	for _, c := range schema.Checks {
		label := c.Label
		if label == "" {
			label = c.Column
		}
		rec.Checks = append(rec.Checks, Check{
			Name:  c.Column,
			Label: label,
			OK:    rec.parseBoolField(c.Column, cell(c.Column)),
		})
	}

	rec.Key = generateSiteKey(rec.Name, rec.StreetDB, rec.CityDB, deref(rec.ExternalReference), deref(rec.PlaceID))
	return rec
}

// ParseBool maps a sheet boolean to a Go bool. "TRUE"/"true" (any case) is
// true, everything else is false. The second result reports whether the value
// was a recognised boolean spelling or blank.
func ParseBool(v string) (value, recognised bool) {
	v = strings.TrimSpace(v)
	switch {
	case strings.EqualFold(v, "true"):
		return true, true
	case strings.EqualFold(v, "false"), v == "":
		return false, true
	default:
		return false, false
	}
}

// NormalizeID returns nil for the built-in null sentinels, otherwise the
// trimmed identifier. "0" and any other text are kept.
func NormalizeID(v string) *string {
	return Schema{}.NormalizeID(v)
}

// NormalizeID is NormalizeID extended with the schema's extra sentinels.
func (s Schema) NormalizeID(v string) *string {
	v = strings.TrimSpace(v)
	for _, n := range builtinNullSentinels {
		if strings.EqualFold(v, n) {
			return nil
		}
	}
	if s.isNullSentinel(v) {
		return nil
	}
	return &v
}

// NormalizeText applies NFKC normalization, drops control characters and
// trims surrounding whitespace.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func (r *SiteRecord) parseBoolField(field, raw string) bool {
	v, ok := ParseBool(raw)
	if !ok {
		r.addIssue(field, raw, "not a boolean, treated as false")
	}
	return v
}

func (r *SiteRecord) parseMappingField(field, raw string) map[string]any {
	m, err := ParseMappingLiteral(raw)
	if err != nil {
		r.addIssue(field, raw, err.Error())
		return map[string]any{}
	}
	return m
}

func (r *SiteRecord) addIssue(field, value, msg string) {
	r.Issues = append(r.Issues, FieldIssue{Row: r.Row, Field: field, Value: value, Err: msg})
}

// generateSiteKey produces a deterministic key from the record's identity
// fields so repeated loads of the same row publish under the same key.
func generateSiteKey(name, street, city, externalRef, placeID string) string {
	input := strings.Join([]string{name, street, city, externalRef, placeID}, "|")
	hash := sha256.Sum256([]byte(input))
	return "site-" + hex.EncodeToString(hash[:8])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
