package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills in a location for records whose geometry columns
// both failed to parse. The record keeps InvalidGeometry set because the sheet
// is still wrong; it only becomes plottable. A nil geocoder or a failed lookup
// leaves the record unchanged (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, rec SiteRecord, geocoder Geocoder, logger *slog.Logger) SiteRecord {
	if geocoder == nil || rec.Location != nil {
		return rec
	}

	street, city := rec.StreetDB, rec.CityDB
	if street == "" || city == "" {
		street, city = rec.StreetGoogle, rec.CityGoogle
	}
	if street == "" || city == "" {
		return rec
	}

	result, err := geocoder.ForwardGeocode(ctx, street, city)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"site_key", rec.Key,
			"row", rec.Row,
			"street", street,
			"city", city,
			"error", err,
		)
		return rec
	}
	if result.Lat == 0 && result.Lon == 0 {
		return rec
	}

	rec.Location = &Point{Lat: result.Lat, Lon: result.Lon}
	rec.GeoSource = GeoSourceGeocoded
	rec.FormattedAddress = result.FormattedAddress
	rec.GeoConfidence = result.Confidence
	return rec
}
