package aurora

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aurorawatch/aurora-forecast/internal/cache"
)

type stubProvider struct {
	name  string
	loc   IPLocation
	err   error
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Lookup(ctx context.Context) (IPLocation, error) {
	p.calls++
	if p.err != nil {
		return IPLocation{}, p.err
	}
	return p.loc, nil
}

func ptr(v float64) *float64 { return &v }

func testLocation() IPLocation {
	return IPLocation{
		Coordinate: Coordinate{Lat: 69.65, Lon: 18.96},
		City:       "Tromsø",
		Region:     "Troms",
		Country:    "Norway",
	}
}

func TestResolveUserCoordinates(t *testing.T) {
	p := &stubProvider{name: "stub", loc: testLocation()}
	r := NewResolver(cache.New(10), []LocationProvider{p})

	loc, err := r.Resolve(context.Background(), ptr(10), ptr(20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loc.Source != SourceUser {
		t.Fatalf("expected user source, got %s", loc.Source)
	}
	if loc.Coordinate.Lat != 10 || loc.Coordinate.Lon != 20 {
		t.Fatalf("unexpected coordinate %+v", loc.Coordinate)
	}
	if loc.Note != "" {
		t.Fatalf("expected no note, got %q", loc.Note)
	}
	if loc.DisplayName != "10.00°, 20.00°" {
		t.Fatalf("unexpected display name %q", loc.DisplayName)
	}
	if p.calls != 0 {
		t.Fatalf("expected no provider calls, got %d", p.calls)
	}
}

func TestResolvePartialCoordinates(t *testing.T) {
	p := &stubProvider{name: "stub", loc: testLocation()}
	r := NewResolver(cache.New(10), []LocationProvider{p})

	loc, err := r.Resolve(context.Background(), ptr(10), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loc.Source != SourceIP {
		t.Fatalf("expected ip source, got %s", loc.Source)
	}
	if loc.Note != PartialCoordinateNote {
		t.Fatalf("expected partial-coordinate note, got %q", loc.Note)
	}
	if p.calls != 1 {
		t.Fatalf("expected one provider call, got %d", p.calls)
	}
	if loc.IPRecord == nil || loc.IPRecord.City != "Tromsø" {
		t.Fatalf("expected raw IP record, got %+v", loc.IPRecord)
	}
	if loc.DisplayName != "Tromsø, Troms, Norway" {
		t.Fatalf("unexpected display name %q", loc.DisplayName)
	}
}

func TestResolveInvalidLatitude(t *testing.T) {
	p := &stubProvider{name: "stub", loc: testLocation()}
	r := NewResolver(cache.New(10), []LocationProvider{p})

	_, err := r.Resolve(context.Background(), ptr(91), ptr(0))

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "latitude" {
		t.Fatalf("expected latitude bound failure, got %s", ve.Field)
	}
	if p.calls != 0 {
		t.Fatalf("validation failure must not reach providers, got %d calls", p.calls)
	}
}

func TestResolveInvalidLongitude(t *testing.T) {
	r := NewResolver(cache.New(10), nil)

	_, err := r.Resolve(context.Background(), ptr(0), ptr(-181))

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != "longitude" {
		t.Fatalf("expected longitude bound failure, got %s", ve.Field)
	}
}

// TestProviderChainFallback verifies that a failing first provider advances
// the chain and the second provider's data is returned.
func TestProviderChainFallback(t *testing.T) {
	a := &stubProvider{name: "a", err: &ProviderError{Provider: "a", Reason: "rate limited"}}
	b := &stubProvider{name: "b", loc: testLocation()}
	r := NewResolver(cache.New(10), []LocationProvider{a, b})

	loc, err := r.Resolve(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loc.Coordinate != b.loc.Coordinate {
		t.Fatalf("expected provider b's coordinate, got %+v", loc.Coordinate)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected each provider tried once, got a=%d b=%d", a.calls, b.calls)
	}
}

func TestProviderChainExhausted(t *testing.T) {
	a := &stubProvider{name: "a", err: &ProviderError{Provider: "a", Reason: "rate limited"}}
	b := &stubProvider{name: "b", err: &ProviderError{Provider: "b", Reason: "timeout"}}
	r := NewResolver(cache.New(10), []LocationProvider{a, b})

	_, err := r.Resolve(context.Background(), nil, nil)

	var lu *LocationUnavailableError
	if !errors.As(err, &lu) {
		t.Fatalf("expected LocationUnavailableError, got %v", err)
	}
	if len(lu.Reasons) != 2 {
		t.Fatalf("expected both reasons recorded, got %v", lu.Reasons)
	}
	if !strings.Contains(err.Error(), "a: rate limited; b: timeout") {
		t.Fatalf("expected reasons joined with semicolons, got %q", err.Error())
	}
}

func TestProviderChainEmpty(t *testing.T) {
	r := NewResolver(cache.New(10), nil)

	_, err := r.Resolve(context.Background(), nil, nil)
	if err == nil || !strings.Contains(err.Error(), "no providers available") {
		t.Fatalf("expected generic no-providers message, got %v", err)
	}
}

// TestResolveCachesIPLocation verifies the lookup result is reused within the
// location TTL instead of hitting the chain again.
func TestResolveCachesIPLocation(t *testing.T) {
	p := &stubProvider{name: "stub", loc: testLocation()}
	r := NewResolver(cache.New(10), []LocationProvider{p})

	for i := 0; i < 3; i++ {
		if _, err := r.Resolve(context.Background(), nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if p.calls != 1 {
		t.Fatalf("expected a single provider call across resolutions, got %d", p.calls)
	}
}

// TestLookupFailureNotCached verifies an exhausted chain is retried on the
// next call rather than cached.
func TestLookupFailureNotCached(t *testing.T) {
	p := &stubProvider{name: "stub", err: &ProviderError{Provider: "stub", Reason: "down"}}
	r := NewResolver(cache.New(10), []LocationProvider{p})

	for i := 0; i < 2; i++ {
		if _, err := r.Resolve(context.Background(), nil, nil); err == nil {
			t.Fatal("expected resolution failure")
		}
	}

	if p.calls != 2 {
		t.Fatalf("expected failure to be retried on the next call, got %d calls", p.calls)
	}
}
