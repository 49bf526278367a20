// Command validate loads a reconciliation sheet once, classifies it with the
// domain package, and checks the result for internal consistency: every row
// lands in exactly one category, one-sided rows are flagged the way the
// identifiers say, plotted locations are in range, and the discrepancy table
// is ordered failing-first. It exits non-zero when any check fails.
//
// Usage:
//
//	go run ./cmd/validate -sheet data/mock/sites.csv
//	go run ./cmd/validate -sheet 'https://docs.google.com/spreadsheets/d/<id>/export?format=csv' \
//	  -schema configs/schema.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/site-reconciliation-service/internal/adapter/sheet"
	"github.com/couchcryptid/site-reconciliation-service/internal/config"
	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	source := flag.String("sheet", "", "sheet file path (.csv, .xlsx) or CSV export URL")
	sheetName := flag.String("sheet-name", "", "worksheet name for .xlsx sources")
	schemaFile := flag.String("schema", "", "optional YAML schema file")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout for URL sources")
	flag.Parse()

	if *source == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*source, *sheetName, *schemaFile, *timeout))
}

func run(source, sheetName, schemaFile string, timeout time.Duration) int {
	fmt.Println("=== Site Reconciliation Validation ===")
	fmt.Println()

	schema := domain.DefaultSchema()
	if schemaFile != "" {
		s, err := config.LoadSchema(schemaFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		schema = s
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rows, err := sheet.New(source, sheetName, timeout, logger).FetchRows(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load sheet: %v\n", err)
		return 1
	}

	records := make([]domain.SiteRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.EnrichSiteRecord(domain.ParseSiteRow(row, schema)))
	}
	report := domain.BuildReport(records, time.Now().UTC())

	phases := []*phase{
		validatePartition(report),
		validateCategories(report.Records),
		validateGeometry(report),
		validateOrdering(report),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d rows, %d invalid geometry, %d field issues\n",
		report.Summary.Total, report.Summary.InvalidGeometry, len(report.Issues))
	for _, c := range report.Summary.Categories {
		fmt.Printf("  %-36s %d\n", c.Title, c.Count)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Partition ──
// Every record has exactly one known category and a unique key.

func validatePartition(report domain.Report) *phase {
	p := &phase{name: "Phase 1: Category partition"}

	sum := 0
	for _, c := range report.Summary.Categories {
		sum += c.Count
	}
	if sum != report.Summary.Total {
		p.errorf("category counts sum to %d, want %d", sum, report.Summary.Total)
	}

	seen := make(map[string]int, len(report.Records))
	for _, r := range report.Records {
		if !r.Category.Valid() {
			p.errorf("row %d: unknown category %q", r.Row, r.Category)
		}
		if prev, ok := seen[r.Key]; ok {
			p.errorf("rows %d and %d share key %s", prev, r.Row, r.Key)
		}
		seen[r.Key] = r.Row
	}
	return p
}

// ── Phase 2: Category rules ──
// Categories agree with the identifier and match flags they derive from.

func validateCategories(records []domain.SiteRecord) *phase {
	p := &phase{name: "Phase 2: Category rules"}

	for _, r := range records {
		if r.MissingPlaceID != (r.PlaceID == nil) {
			p.errorf("row %d: missing_placeId=%t disagrees with placeId %q", r.Row, r.MissingPlaceID, deref(r.PlaceID))
		}
		if r.MissingExternalReference != (r.ExternalReference == nil) {
			p.errorf("row %d: missing_external_reference=%t disagrees with external_reference %q",
				r.Row, r.MissingExternalReference, deref(r.ExternalReference))
		}

		switch r.Category {
		case domain.CategoryMissingInMapProvider:
			if !r.MissingPlaceID {
				p.errorf("row %d: missing in map provider but placeId %q is set", r.Row, deref(r.PlaceID))
			}
		case domain.CategoryMissingInDatabase:
			if r.MissingPlaceID || !r.MissingExternalReference {
				p.errorf("row %d: missing in database but identifiers disagree", r.Row)
			}
		case domain.CategoryFullyCorrect:
			if r.MissingPlaceID || r.MissingExternalReference {
				p.errorf("row %d: fully correct with a missing identifier", r.Row)
			}
			if !r.ConnectorMatch || !r.PowerMatch {
				p.errorf("row %d: fully correct with connector=%t power=%t", r.Row, r.ConnectorMatch, r.PowerMatch)
			}
		case domain.CategoryDiscrepant:
			if r.MissingPlaceID || r.MissingExternalReference {
				p.errorf("row %d: discrepant with a missing identifier", r.Row)
			}
			if r.ConnectorMatch && r.PowerMatch {
				p.errorf("row %d: discrepant but connector and power both match", r.Row)
			}
		}
	}
	return p
}

// ── Phase 3: Geometry ──
// Plotted locations are in range and every unplottable row is flagged.

func validateGeometry(report domain.Report) *phase {
	p := &phase{name: "Phase 3: Geometry"}

	plotted := 0
	for _, r := range report.Records {
		if r.Location == nil {
			if !r.InvalidGeometry {
				p.errorf("row %d: no location but not flagged invalid", r.Row)
			}
			continue
		}
		plotted++
		if r.InvalidGeometry {
			p.errorf("row %d: has location but flagged invalid", r.Row)
		}
		if r.Location.Lat < -90 || r.Location.Lat > 90 || r.Location.Lon < -180 || r.Location.Lon > 180 {
			p.errorf("row %d: location out of range (%g, %g)", r.Row, r.Location.Lat, r.Location.Lon)
		}
	}
	if plotted != len(report.MapPoints) {
		p.errorf("%d plottable records but %d map points", plotted, len(report.MapPoints))
	}
	for _, mp := range report.MapPoints {
		if mp.Color != mp.Category.Color() {
			p.errorf("map point %s: color %s does not match category %s", mp.Key, mp.Color, mp.Category)
		}
	}
	return p
}

// ── Phase 4: Ordering ──
// The discrepancy table never places a passing row before a failing one on
// the leading connector/power keys.

func validateOrdering(report domain.Report) *phase {
	p := &phase{name: "Phase 4: Discrepancy ordering"}

	for i := 1; i < len(report.Discrepancies); i++ {
		prev, cur := report.Discrepancies[i-1].Record, report.Discrepancies[i].Record
		if rank(prev) > rank(cur) {
			p.errorf("row %d (connector=%t power=%t) sorted before row %d (connector=%t power=%t)",
				prev.Row, prev.ConnectorMatch, prev.PowerMatch, cur.Row, cur.ConnectorMatch, cur.PowerMatch)
		}
	}
	return p
}

func rank(r domain.SiteRecord) int {
	n := 0
	if r.ConnectorMatch {
		n += 2
	}
	if r.PowerMatch {
		n++
	}
	return n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
