package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// ReadCSV decodes a CSV sheet whose first line is the header.
func ReadCSV(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // sheet exports drop trailing empty cells
	cr.LazyQuotes = true

	table, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return rowsFromTable(table)
}
