package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/aurorawatch/aurora-forecast/internal/aurora"
)

// IPWhoisProvider implements the aurora.LocationProvider interface for
// ipwho.is (free, no key). The fields parameter keeps the payload small.
type IPWhoisProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewIPWhoisProvider(client *http.Client) *IPWhoisProvider {
	return &IPWhoisProvider{
		name:    "ipwho.is",
		baseURL: "https://ipwho.is/?fields=success,message,latitude,longitude,city,region,country",
		client:  client,
		circuit: newBreaker("ipwhois"),
	}
}

func (p *IPWhoisProvider) Name() string {
	return p.name
}

func (p *IPWhoisProvider) Lookup(ctx context.Context) (aurora.IPLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var payload struct {
		// ipwho.is reports failure in-band: {"success": false, "message": ...}
		Success *bool  `json:"success"`
		Message string `json:"message"`

		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		City      string   `json:"city"`
		Region    string   `json:"region"`
		Country   string   `json:"country"`
	}

	status, err := getJSON(ctx, p.client, p.circuit, p.baseURL, &payload)
	if err != nil {
		return aurora.IPLocation{}, &aurora.ProviderError{Provider: p.name, Reason: err.Error()}
	}

	if payload.Success != nil && !*payload.Success {
		return aurora.IPLocation{}, &aurora.ProviderError{
			Provider: p.name,
			Reason:   orDefault(payload.Message, "error"),
		}
	}

	if payload.Latitude != nil && payload.Longitude != nil {
		return aurora.IPLocation{
			Coordinate: aurora.Coordinate{Lat: *payload.Latitude, Lon: *payload.Longitude},
			City:       orUnknown(payload.City),
			Region:     orUnknown(payload.Region),
			Country:    orUnknown(payload.Country),
		}, nil
	}

	return aurora.IPLocation{}, &aurora.ProviderError{
		Provider: p.name,
		Reason:   fmt.Sprintf("unexpected response (status=%d)", status),
	}
}
