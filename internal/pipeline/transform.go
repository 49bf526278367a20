package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
)

// SiteTransformer implements Transformer using domain parse and classify
// functions with optional geocoding fallback.
type SiteTransformer struct {
	schema   domain.Schema
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a SiteTransformer. Pass a nil geocoder to disable
// the geocoding fallback.
func NewTransformer(schema domain.Schema, geocoder domain.Geocoder, logger *slog.Logger) *SiteTransformer {
	return &SiteTransformer{
		schema:   schema,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *SiteTransformer) Transform(ctx context.Context, row domain.RawRow) domain.SiteRecord {
	rec := domain.ParseSiteRow(row, t.schema)
	rec = domain.EnrichSiteRecord(rec)
	return domain.EnrichWithGeocoding(ctx, rec, t.geocoder, t.logger)
}
