package sheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// FileSource reads a local .csv or .xlsx sheet on every fetch.
type FileSource struct {
	path      string
	sheetName string
	logger    *slog.Logger
}

// NewFileSource creates a file-backed source. sheetName selects the XLSX
// worksheet and is ignored for CSV; empty means the first worksheet.
func NewFileSource(path, sheetName string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, sheetName: sheetName, logger: logger}
}

// FetchRows reads and decodes the file.
func (s *FileSource) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}

	var (
		rows []domain.RawRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(s.path, s.sheetName)
	default:
		rows, err = readCSVFile(s.path)
	}
	if err != nil {
		return nil, &LoadError{Source: s.path, Err: err}
	}

	s.logger.Debug("sheet file loaded", "path", s.path, "rows", len(rows))
	return rows, nil
}

func readCSVFile(path string) ([]domain.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func readXLSX(path, sheetName string) ([]domain.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheetName = sheets[0]
	}

	table, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheetName, err)
	}
	return rowsFromTable(table)
}
