package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// maxSheetBytes caps the CSV export body.
const maxSheetBytes = 32 << 20

// ErrSheetTooLarge is returned when an export exceeds the body cap.
var ErrSheetTooLarge = errors.New("sheet export exceeds size limit")

// HTTPSource downloads a CSV export on every fetch.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	maxBytes   int64
}

// NewHTTPSource creates a source for a CSV export URL.
func NewHTTPSource(url string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:   logger,
		maxBytes: maxSheetBytes,
	}
}

// FetchRows downloads and decodes the export.
func (s *HTTPSource) FetchRows(ctx context.Context) ([]domain.RawRow, error) {
	rows, err := s.fetch(ctx)
	if err != nil {
		return nil, &LoadError{Source: s.url, Err: err}
	}
	s.logger.Debug("sheet export downloaded", "rows", len(rows))
	return rows, nil
}

func (s *HTTPSource) fetch(ctx context.Context) ([]domain.RawRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sheet export error: status %d: %s", resp.StatusCode, body)
	}

	if resp.ContentLength > s.maxBytes {
		return nil, fmt.Errorf("%w: content length %d > %d", ErrSheetTooLarge, resp.ContentLength, s.maxBytes)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSheetTooLarge, s.maxBytes)
	}
	return ReadCSV(bytes.NewReader(body))
}
