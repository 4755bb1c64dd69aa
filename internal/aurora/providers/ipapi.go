package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/aurorawatch/aurora-forecast/internal/aurora"
)

// IPAPIProvider implements the aurora.LocationProvider interface for
// ipapi.co. The free tier rate-limits aggressively, so on failure the chain
// moves on rather than retrying.
type IPAPIProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewIPAPIProvider(client *http.Client) *IPAPIProvider {
	return &IPAPIProvider{
		name:    "ipapi.co",
		baseURL: "https://ipapi.co/json/",
		client:  client,
		circuit: newBreaker("ipapi"),
	}
}

func (p *IPAPIProvider) Name() string {
	return p.name
}

func (p *IPAPIProvider) Lookup(ctx context.Context) (aurora.IPLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var payload struct {
		Latitude    *float64 `json:"latitude"`
		Longitude   *float64 `json:"longitude"`
		City        string   `json:"city"`
		Region      string   `json:"region"`
		Country     string   `json:"country"`
		CountryName string   `json:"country_name"`

		// Error payload shape: {"error": true, "reason": ..., "message": ...}
		Error   bool   `json:"error"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}

	status, err := getJSON(ctx, p.client, p.circuit, p.baseURL, &payload)
	if err != nil {
		return aurora.IPLocation{}, &aurora.ProviderError{Provider: p.name, Reason: err.Error()}
	}

	if status == http.StatusOK && payload.Latitude != nil && payload.Longitude != nil {
		country := payload.CountryName
		if country == "" {
			country = payload.Country
		}
		return aurora.IPLocation{
			Coordinate: aurora.Coordinate{Lat: *payload.Latitude, Lon: *payload.Longitude},
			City:       orUnknown(payload.City),
			Region:     orUnknown(payload.Region),
			Country:    orUnknown(country),
		}, nil
	}

	if payload.Error {
		reason := orDefault(payload.Reason, "error")
		message := orDefault(payload.Message, "no message")
		return aurora.IPLocation{}, &aurora.ProviderError{
			Provider: p.name,
			Reason:   fmt.Sprintf("%s (%s)", reason, message),
		}
	}

	return aurora.IPLocation{}, &aurora.ProviderError{
		Provider: p.name,
		Reason:   fmt.Sprintf("unexpected response (status=%d)", status),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
