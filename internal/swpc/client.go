// Package swpc fetches the NOAA Space Weather Prediction Center JSON
// datasets consumed by the aurora service.
package swpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/aurorawatch/aurora-forecast/internal/aurora"
)

const (
	gridPath  = "/json/ovation_aurora_latest.json"
	kpPath    = "/json/planetary_k_index_1m.json"
	enlilPath = "/json/enlil_time_series.json"
	flarePath = "/json/solar_probabilities.json"

	// ENLIL payloads are an order of magnitude larger than the rest.
	defaultTimeout = 10 * time.Second
	enlilTimeout   = 15 * time.Second
)

// Client implements aurora.SpaceWeatherSource against the SWPC services.
// Failed fetches are surfaced as *aurora.NetworkError and never retried
// within the call; the circuit breaker only sheds load across calls.
type Client struct {
	client  *http.Client
	baseURL string
	circuit *gobreaker.CircuitBreaker
}

var _ aurora.SpaceWeatherSource = (*Client)(nil)

func NewClient(client *http.Client) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "swpc",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		client:  client,
		baseURL: "https://services.swpc.noaa.gov",
		circuit: cb,
	}
}

// FetchAuroraGrid returns the latest OVATION aurora probability grid.
func (c *Client) FetchAuroraGrid(ctx context.Context) (aurora.OvationGrid, error) {
	var grid aurora.OvationGrid
	if err := c.fetch(ctx, "OVATION", gridPath, defaultTimeout, &grid); err != nil {
		return aurora.OvationGrid{}, err
	}
	return grid, nil
}

// FetchKpIndex returns the 1-minute planetary K-index series.
func (c *Client) FetchKpIndex(ctx context.Context) ([]aurora.KpReading, error) {
	var series []aurora.KpReading
	if err := c.fetch(ctx, "Kp index", kpPath, defaultTimeout, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// FetchSolarWind returns the ENLIL solar-wind time series, unparsed.
func (c *Client) FetchSolarWind(ctx context.Context) (aurora.SolarWindSeries, error) {
	var series aurora.SolarWindSeries
	if err := c.fetch(ctx, "ENLIL", enlilPath, enlilTimeout, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// FetchFlareProbabilities returns the solar-flare probability record,
// unparsed.
func (c *Client) FetchFlareProbabilities(ctx context.Context) (json.RawMessage, error) {
	var record json.RawMessage
	if err := c.fetch(ctx, "solar probabilities", flarePath, defaultTimeout, &record); err != nil {
		return nil, err
	}
	return record, nil
}

func (c *Client) fetch(ctx context.Context, dataset, path string, timeout time.Duration, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, err := c.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return &aurora.NetworkError{Dataset: dataset, Err: err}
	}
	return nil
}
