// Command genmock generates a synthetic charging-site sheet with a known mix
// of fully correct, discrepant, and one-sided rows. The output is read back
// through the sheet adapter and classified with the domain package, so the
// printed stats match what the service would report.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/sites.csv -rows 500 -seed 42
//	go run ./cmd/genmock -out data/mock/sites.xlsx -rows 500
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/site-reconciliation-service/internal/adapter/sheet"
	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

type city struct {
	name     string
	lat, lon float64
}

var cities = []city{
	{"Amsterdam", 52.3676, 4.9041},
	{"Rotterdam", 51.9244, 4.4777},
	{"Utrecht", 52.0907, 5.1214},
	{"Den Haag", 52.0705, 4.3007},
	{"Eindhoven", 51.4416, 5.4697},
	{"Groningen", 53.2194, 6.5665},
	{"Zwolle", 52.5168, 6.0830},
	{"Maastricht", 50.8514, 5.6910},
}

var streets = []string{"Stationsplein", "Markt", "Havenweg", "Dorpsstraat", "Kerkstraat", "Molenweg", "Industrieweg"}

var connectors = []string{"Type 2", "CCS", "CHAdeMO"}

// scenario shapes one generated row.
type scenario int

const (
	scenarioCorrect scenario = iota
	scenarioConnectorMismatch
	scenarioPowerMismatch
	scenarioCheckFailed
	scenarioMissingInGoogle
	scenarioMissingInDB
	scenarioBadDBGeometry
	scenarioNoGeometry
)

// Relative weights per scenario; most real rows are correct.
var weights = []int{50, 10, 8, 8, 8, 8, 5, 3}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path (.csv or .xlsx)")
	rows := flag.Int("rows", 200, "number of data rows to generate")
	seed := flag.Uint64("seed", 42, "random seed for reproducible output")
	flag.Parse()

	if *out == "" || *rows <= 0 {
		flag.Usage()
		return errors.New("missing required flags: -out, -rows > 0")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x5eed))
	schema := domain.DefaultSchema()
	header := headerFor(schema)

	table := make([][]string, 0, *rows+1)
	table = append(table, header)
	for i := 0; i < *rows; i++ {
		table = append(table, generateRow(rng, i, header, schema))
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if err := write(*out, table); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	log.Printf("wrote %d rows: %s", *rows, *out)

	return printStats(*out, schema)
}

func headerFor(schema domain.Schema) []string {
	header := append([]string{}, domain.RequiredColumns...)
	for _, c := range schema.Checks {
		header = append(header, c.Column)
	}
	return header
}

func pick(rng *rand.Rand) scenario {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return scenario(i)
		}
		n -= w
	}
	return scenarioCorrect
}

func generateRow(rng *rand.Rand, i int, header []string, schema domain.Schema) []string {
	c := cities[rng.IntN(len(cities))]
	street := fmt.Sprintf("%s %d", streets[rng.IntN(len(streets))], rng.IntN(120)+1)
	lat := c.lat + (rng.Float64()-0.5)*0.1
	lon := c.lon + (rng.Float64()-0.5)*0.1

	cells := map[string]string{
		domain.ColName:              fmt.Sprintf("Site %04d %s", i+1, c.name),
		domain.ColStreetDB:          street,
		domain.ColCityDB:            c.name,
		domain.ColStreetGoogle:      street,
		domain.ColCityGoogle:        c.name,
		domain.ColExternalReference: fmt.Sprintf("%d", 100000+i),
		domain.ColPlaceID:           fmt.Sprintf("ChIJ%012x", rng.Uint64()&0xffffffffffff),
		domain.ColConnectorMatch:    "TRUE",
		domain.ColPowerMatch:        "TRUE",
		domain.ColGeometryDB:        wkt(lon, lat),
		domain.ColGeometryGoogle:    wkt(lon+0.0001, lat+0.0001),
	}
	for _, chk := range schema.Checks {
		cells[chk.Column] = "TRUE"
	}

	switch pick(rng) {
	case scenarioCorrect:
	case scenarioConnectorMismatch:
		cells[domain.ColConnectorMatch] = "FALSE"
		cells[domain.ColMissingInGoogle] = fmt.Sprintf("{'%s': %d}", connectors[rng.IntN(len(connectors))], rng.IntN(3)+1)
	case scenarioPowerMismatch:
		cells[domain.ColPowerMatch] = "FALSE"
	case scenarioCheckFailed:
		if len(schema.Checks) > 0 {
			cells[schema.Checks[rng.IntN(len(schema.Checks))].Column] = "FALSE"
		}
	case scenarioMissingInGoogle:
		cells[domain.ColPlaceID] = []string{"", "NULL", "N/A"}[rng.IntN(3)]
		cells[domain.ColStreetGoogle], cells[domain.ColCityGoogle] = "", ""
		cells[domain.ColGeometryGoogle] = ""
		cells[domain.ColConnectorMatch], cells[domain.ColPowerMatch] = "", ""
	case scenarioMissingInDB:
		cells[domain.ColExternalReference] = []string{"", "NULL"}[rng.IntN(2)]
		cells[domain.ColStreetDB], cells[domain.ColCityDB] = "", ""
		cells[domain.ColGeometryDB] = ""
		cells[domain.ColConnectorMatch], cells[domain.ColPowerMatch] = "", ""
	case scenarioBadDBGeometry:
		cells[domain.ColGeometryDB] = "POINT (invalid)"
	case scenarioNoGeometry:
		cells[domain.ColGeometryDB], cells[domain.ColGeometryGoogle] = "", ""
	}

	row := make([]string, len(header))
	for j, col := range header {
		row[j] = cells[col]
	}
	return row
}

func wkt(lon, lat float64) string {
	return fmt.Sprintf("POINT (%.6f %.6f)", lon, lat)
}

func write(path string, table [][]string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return writeXLSX(path, table)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return writeCSV(f, table)
}

func writeCSV(w io.Writer, table [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table); err != nil {
		return err
	}
	return cw.Error()
}

func writeXLSX(path string, table [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheetName = "Sheet1"
	for i, row := range table {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

// printStats reads the generated sheet back and prints the classification
// the service would report, for updating test assertions.
func printStats(path string, schema domain.Schema) error {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rows, err := sheet.NewFileSource(path, "", logger).FetchRows(context.Background())
	if err != nil {
		return fmt.Errorf("read back %s: %w", path, err)
	}

	records := make([]domain.SiteRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, domain.EnrichSiteRecord(domain.ParseSiteRow(row, schema)))
	}
	report := domain.BuildReport(records, time.Now().UTC())

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", report.Summary.Total)
	for _, c := range report.Summary.Categories {
		fmt.Printf("  %-26s %d\n", c.Title, c.Count)
	}
	fmt.Printf("Invalid geometry: %d\n", report.Summary.InvalidGeometry)
	fmt.Printf("Map points: %d\n", len(report.MapPoints))
	fmt.Printf("Records with issues: %d (%d issues)\n", report.Summary.RecordsWithIssues, len(report.Issues))
	return nil
}
