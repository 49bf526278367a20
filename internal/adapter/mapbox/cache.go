package mapbox

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/couchcryptid/site-reconciliation-service/internal/domain"
	"github.com/couchcryptid/site-reconciliation-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory TTL cache keyed on the
// normalized address. The sheet is reloaded every refresh, so the same
// unplottable sites would otherwise be looked up again each time.
type CachedGeocoder struct {
	inner   domain.Geocoder
	store   *gocache.Cache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Entries
// expire after ttl; expired entries are purged every ttl/2.
func NewCachedGeocoder(inner domain.Geocoder, ttl time.Duration, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		store:   gocache.New(ttl, ttl/2),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, street, city string) (domain.GeocodingResult, error) {
	key := cacheKey(street, city)
	if v, ok := c.store.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return v.(domain.GeocodingResult), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, street, city)
	if err != nil {
		return result, err
	}
	// Only cache matches so "not found" responses are retried next refresh.
	if result.FormattedAddress != "" {
		c.store.Set(key, result, gocache.DefaultExpiration)
	}
	return result, nil
}

// Len returns the number of cached addresses, including expired entries not
// yet purged.
func (c *CachedGeocoder) Len() int {
	return c.store.ItemCount()
}

func cacheKey(street, city string) string {
	return strings.ToLower(strings.TrimSpace(street)) + "|" + strings.ToLower(strings.TrimSpace(city))
}
