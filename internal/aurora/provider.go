package aurora

import (
	"context"
	"encoding/json"
)

// LocationProvider is one member of the IP-geolocation fallback chain
// (e.g. ipapi.co, ipwho.is). Lookup failures must be returned as
// *ProviderError so the chain can aggregate them.
type LocationProvider interface {
	Name() string
	Lookup(ctx context.Context) (IPLocation, error)
}

// SpaceWeatherSource abstracts the NOAA SWPC datasets the service consumes.
// Fetch failures are surfaced as *NetworkError naming the dataset.
type SpaceWeatherSource interface {
	FetchAuroraGrid(ctx context.Context) (OvationGrid, error)
	FetchKpIndex(ctx context.Context) ([]KpReading, error)
	FetchSolarWind(ctx context.Context) (SolarWindSeries, error)
	FetchFlareProbabilities(ctx context.Context) (json.RawMessage, error)
}
