package aurora

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aurorawatch/aurora-forecast/internal/cache"
)

type stubSource struct {
	grid       OvationGrid
	gridErr    error
	gridCalls  int
	series     []KpReading
	seriesErr  error
	kpCalls    int
	solarWind  SolarWindSeries
	flares     json.RawMessage
	flareCalls int
}

func (s *stubSource) FetchAuroraGrid(ctx context.Context) (OvationGrid, error) {
	s.gridCalls++
	return s.grid, s.gridErr
}

func (s *stubSource) FetchKpIndex(ctx context.Context) ([]KpReading, error) {
	s.kpCalls++
	return s.series, s.seriesErr
}

func (s *stubSource) FetchSolarWind(ctx context.Context) (SolarWindSeries, error) {
	return s.solarWind, nil
}

func (s *stubSource) FetchFlareProbabilities(ctx context.Context) (json.RawMessage, error) {
	s.flareCalls++
	return s.flares, nil
}

func testSource() *stubSource {
	return &stubSource{
		grid: OvationGrid{Coordinates: []GridPoint{
			{Lon: -150.5, Lat: 60.5, Probability: 42},
			{Lon: 20, Lat: 70, Probability: 88},
		}},
		series: []KpReading{
			{Kp: "1.67", TimeTag: "2026-08-26T10:00:00"},
			{Kp: "3.33", TimeTag: "2026-08-26T10:01:00"},
		},
		solarWind: SolarWindSeries{json.RawMessage(`{}`), json.RawMessage(`{}`)},
		flares:    json.RawMessage(`[{"c_class_1_day":40}]`),
	}
}

func TestSnapshotFetchesAndCaches(t *testing.T) {
	src := testSource()
	svc := NewService(cache.New(20), src)

	snap, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60.2, Lon: -150.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Probability != 42 {
		t.Fatalf("expected nearest-point probability 42, got %g", snap.Probability)
	}
	if snap.KpIndex != "3.33" {
		t.Fatalf("expected last kp reading, got %q", snap.KpIndex)
	}
	if snap.Coordinate.Lat != 60.2 || snap.Coordinate.Lon != -150.3 {
		t.Fatalf("expected unrounded input coordinate, got %+v", snap.Coordinate)
	}
}

// TestSnapshotSharedCell verifies that two nearby coordinates landing in the
// same 0.5° cell share one snapshot: the second call is served from cache,
// keeping the first caller's exact coordinate.
func TestSnapshotSharedCell(t *testing.T) {
	src := testSource()
	svc := NewService(cache.New(20), src)

	first, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60.2, Lon: -150.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60.1, Lon: -150.4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if src.gridCalls != 1 {
		t.Fatalf("expected a single grid fetch for the shared cell, got %d", src.gridCalls)
	}
	if second != first {
		t.Fatalf("expected cached snapshot %+v, got %+v", first, second)
	}
	if second.Coordinate.Lat != 60.2 {
		t.Fatalf("cached snapshot should keep the populating coordinate, got %+v", second.Coordinate)
	}
}

func TestSnapshotDistinctCells(t *testing.T) {
	src := testSource()
	svc := NewService(cache.New(20), src)

	if _, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60.2, Lon: -150.3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Snapshot(context.Background(), Coordinate{Lat: 68.9, Lon: 18.0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two cells, but the grid itself stays cached under its own key.
	if src.gridCalls != 1 {
		t.Fatalf("expected the grid fetch to be shared, got %d", src.gridCalls)
	}
}

func TestSnapshotUnknownKp(t *testing.T) {
	src := testSource()
	src.series = nil
	svc := NewService(cache.New(20), src)

	snap, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60, Lon: -150})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.KpIndex != "Unknown" {
		t.Fatalf("expected Unknown kp for empty series, got %q", snap.KpIndex)
	}
}

func TestSnapshotGridFetchFailure(t *testing.T) {
	src := testSource()
	src.gridErr = &NetworkError{Dataset: "OVATION", Err: errors.New("status 503")}
	svc := NewService(cache.New(20), src)

	_, err := svc.Snapshot(context.Background(), Coordinate{Lat: 60, Lon: -150})

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Dataset != "OVATION" {
		t.Fatalf("expected dataset name in error, got %q", ne.Dataset)
	}
}

func TestLatestKp(t *testing.T) {
	src := testSource()
	svc := NewService(cache.New(20), src)

	latest, err := svc.LatestKp(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest.Kp.String() != "3.33" {
		t.Fatalf("expected last element of the series, got %q", latest.Kp)
	}

	src.series = nil
	svc = NewService(cache.New(20), src)
	if _, err := svc.LatestKp(context.Background()); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestPrediction(t *testing.T) {
	src := testSource()
	svc := NewService(cache.New(20), src)

	p, err := svc.Prediction(context.Background(), Coordinate{Lat: 60, Lon: -150}, 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.SolarWindPoints != 2 {
		t.Fatalf("expected 2 solar-wind points, got %d", p.SolarWindPoints)
	}
	if !p.FlaresLoaded {
		t.Fatal("expected flare probabilities loaded")
	}
	if p.HoursAhead != 24 {
		t.Fatalf("expected hoursAhead 24, got %d", p.HoursAhead)
	}

	// Both datasets read through the cache on repeat calls.
	if _, err := svc.Prediction(context.Background(), Coordinate{Lat: 60, Lon: -150}, 48); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.flareCalls != 1 {
		t.Fatalf("expected a single flare fetch, got %d", src.flareCalls)
	}
}
