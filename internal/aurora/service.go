package aurora

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/aurorawatch/aurora-forecast/internal/cache"
)

// Dataset cache keys.
const (
	gridCacheKey  = "ovation_data"
	kpCacheKey    = "kp_index"
	enlilCacheKey = "enlil_data"
	flareCacheKey = "solar_probabilities"
)

// Service aggregates NOAA datasets and the grid lookup into cached
// per-coordinate snapshots. Every externally sourced value is read through
// the shared cache.
type Service struct {
	cache  *cache.Cache
	source SpaceWeatherSource
}

// NewService creates a Service reading datasets from source through c.
func NewService(c *cache.Cache, source SpaceWeatherSource) *Service {
	return &Service{cache: c, source: source}
}

// snapshotKey rounds each component to the nearest 0.5° to bound cache
// cardinality while keeping aurora-scale spatial resolution.
func snapshotKey(coord Coordinate) string {
	return fmt.Sprintf("aurora_%g_%g", math.Round(coord.Lat*2)/2, math.Round(coord.Lon*2)/2)
}

// Snapshot returns the aurora snapshot for coord. A cache hit on the rounded
// cell is returned unchanged, including the exact coordinate of whichever
// request populated it. On a miss the grid and Kp series are fetched (each
// through its own TTL), the probability is looked up against the unrounded
// input, and the result is cached.
func (s *Service) Snapshot(ctx context.Context, coord Coordinate) (Snapshot, error) {
	return cache.Memoize(ctx, s.cache, snapshotKey(coord), TTLSnapshot, func(ctx context.Context) (Snapshot, error) {
		grid, err := s.AuroraGrid(ctx)
		if err != nil {
			return Snapshot{}, err
		}
		series, err := s.KpSeries(ctx)
		if err != nil {
			return Snapshot{}, err
		}

		latest := "Unknown"
		if len(series) > 0 {
			latest = series[len(series)-1].Kp.String()
		}

		return Snapshot{
			Probability: NearestProbability(coord, grid),
			KpIndex:     latest,
			Coordinate:  coord,
		}, nil
	})
}

// AuroraGrid returns the OVATION grid, read through the cache.
func (s *Service) AuroraGrid(ctx context.Context) (OvationGrid, error) {
	return cache.Memoize(ctx, s.cache, gridCacheKey, TTLAuroraGrid, s.source.FetchAuroraGrid)
}

// KpSeries returns the planetary K-index series, read through the cache.
func (s *Service) KpSeries(ctx context.Context) ([]KpReading, error) {
	return cache.Memoize(ctx, s.cache, kpCacheKey, TTLKpIndex, s.source.FetchKpIndex)
}

// LatestKp returns the last element of the Kp series. The upstream series
// carries no ordering guarantee; the last element is reported as-is.
func (s *Service) LatestKp(ctx context.Context) (KpReading, error) {
	series, err := s.KpSeries(ctx)
	if err != nil {
		return KpReading{}, err
	}
	if len(series) == 0 {
		return KpReading{}, &NetworkError{Dataset: "Kp index", Err: fmt.Errorf("empty series")}
	}
	return series[len(series)-1], nil
}

// SolarWind returns the ENLIL solar-wind series, read through the cache and
// passed through unparsed.
func (s *Service) SolarWind(ctx context.Context) (SolarWindSeries, error) {
	return cache.Memoize(ctx, s.cache, enlilCacheKey, TTLSolarWind, s.source.FetchSolarWind)
}

// FlareProbabilities returns the solar-flare probability record, read through
// the cache and passed through unparsed.
func (s *Service) FlareProbabilities(ctx context.Context) (json.RawMessage, error) {
	return cache.Memoize(ctx, s.cache, flareCacheKey, TTLFlareProbabilities, s.source.FetchFlareProbabilities)
}

// Prediction summarises the forward-looking datasets for coord without
// parsing the ENLIL time series.
func (s *Service) Prediction(ctx context.Context, coord Coordinate, hoursAhead int) (Prediction, error) {
	series, err := s.SolarWind(ctx)
	if err != nil {
		return Prediction{}, err
	}
	flares, err := s.FlareProbabilities(ctx)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Coordinate:      coord,
		HoursAhead:      hoursAhead,
		SolarWindPoints: len(series),
		FlaresLoaded:    len(flares) > 0,
	}, nil
}
