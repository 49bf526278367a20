// Package sheet loads reconciliation sheets from CSV files, XLSX workbooks
// or an HTTP(S) CSV export such as a Google Sheets "export?format=csv" link.
package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// Source fetches every row of the sheet. It implements pipeline.Source.
type Source interface {
	FetchRows(ctx context.Context) ([]domain.RawRow, error)
}

// LoadError wraps any failure to fetch or decode the sheet. A load error
// fails the whole refresh.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load sheet %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// New picks an HTTP source for http(s) URLs and a file source otherwise.
func New(source, sheetName string, timeout time.Duration, logger *slog.Logger) Source {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPSource(source, timeout, logger)
	}
	return NewFileSource(source, sheetName, logger)
}

// rowsFromTable turns a header plus data rows into RawRows. Blank rows are
// skipped but still counted so row numbers match the sheet. When an optional
// column name repeats, the first occurrence wins.
func rowsFromTable(table [][]string) ([]domain.RawRow, error) {
	if len(table) == 0 {
		return nil, errors.New("sheet is empty")
	}

	header := make([]string, len(table[0]))
	for i, h := range table[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	if err := domain.ValidateHeader(header); err != nil {
		return nil, err
	}

	rows := make([]domain.RawRow, 0, len(table)-1)
	for i, rec := range table[1:] {
		if isBlank(rec) {
			continue
		}
		cells := make(map[string]string, len(header))
		for j, h := range header {
			if _, seen := cells[h]; h == "" || seen {
				continue
			}
			if j < len(rec) {
				cells[h] = rec[j]
			} else {
				cells[h] = ""
			}
		}
		rows = append(rows, domain.RawRow{Number: i + 1, Cells: cells})
	}
	return rows, nil
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
