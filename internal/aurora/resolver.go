package aurora

import (
	"context"
	"errors"
	"fmt"

	"github.com/aurorawatch/aurora-forecast/internal/cache"
)

// locationCacheKey is the fixed cache key for the caller's IP-derived
// location. There is one caller per process, so one key suffices.
const locationCacheKey = "user_location"

// PartialCoordinateNote annotates results where a lone coordinate was
// discarded in favour of IP geolocation.
const PartialCoordinateNote = "partial coordinates supplied; falling back to IP location"

// Resolver turns optional caller-supplied coordinates plus an unreliable
// multi-provider IP lookup into a single authoritative location.
type Resolver struct {
	cache     *cache.Cache
	providers []LocationProvider
}

// NewResolver creates a Resolver consulting the given providers in order.
func NewResolver(c *cache.Cache, providers []LocationProvider) *Resolver {
	return &Resolver{cache: c, providers: providers}
}

// Resolve applies the fallback protocol:
//   - both coordinates present: validate and use them, no network call;
//   - exactly one present: ignore both, note the fallback, use IP lookup;
//   - neither present: use IP lookup.
func (r *Resolver) Resolve(ctx context.Context, lat, lon *float64) (ResolvedLocation, error) {
	if lat != nil && lon != nil {
		coord, err := NewCoordinate(*lat, *lon)
		if err != nil {
			return ResolvedLocation{}, err
		}
		return ResolvedLocation{
			Coordinate:  coord,
			DisplayName: coord.String(),
			Source:      SourceUser,
		}, nil
	}

	var note string
	if (lat != nil) != (lon != nil) {
		note = PartialCoordinateNote
	}

	loc, err := r.DetectIP(ctx)
	if err != nil {
		return ResolvedLocation{}, err
	}
	return ResolvedLocation{
		Coordinate:  loc.Coordinate,
		DisplayName: loc.DisplayName(),
		Source:      SourceIP,
		Note:        note,
		IPRecord:    &loc,
	}, nil
}

// DetectIP returns the caller's IP-derived location, read through the cache
// at the location TTL.
func (r *Resolver) DetectIP(ctx context.Context) (IPLocation, error) {
	return cache.Memoize(ctx, r.cache, locationCacheKey, TTLLocation, r.lookup)
}

// lookup walks the provider chain in order and stops at the first success.
// Each failure is recorded and the chain advances; a given provider is never
// retried within the call. An exhausted chain yields
// *LocationUnavailableError carrying every recorded reason.
func (r *Resolver) lookup(ctx context.Context) (IPLocation, error) {
	var reasons []string
	for _, p := range r.providers {
		loc, err := p.Lookup(ctx)
		if err == nil {
			return loc, nil
		}
		var pe *ProviderError
		if errors.As(err, &pe) {
			reasons = append(reasons, pe.Error())
		} else {
			reasons = append(reasons, fmt.Sprintf("%s: %v", p.Name(), err))
		}
	}
	return IPLocation{}, &LocationUnavailableError{Reasons: reasons}
}
