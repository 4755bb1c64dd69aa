package aurora

import (
	"fmt"
	"strings"
)

// ValidationError reports a coordinate outside its bound. It fails fast:
// no network call is attempted.
type ValidationError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must be between %g and %g", e.Field, e.Min, e.Max)
}

// ProviderError is a recoverable failure of a single geolocation provider.
// The chain records it and advances to the next provider.
type ProviderError struct {
	Provider string
	Reason   string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

// LocationUnavailableError means the entire provider chain was exhausted.
// Reasons holds every provider's recorded failure, in chain order.
type LocationUnavailableError struct {
	Reasons []string
}

func (e *LocationUnavailableError) Error() string {
	detail := "no providers available"
	if len(e.Reasons) > 0 {
		detail = strings.Join(e.Reasons, "; ")
	}
	return "could not determine location from IP: " + detail
}

// NetworkError is a failed NOAA dataset fetch, fatal to the current call and
// never retried within it.
type NetworkError struct {
	Dataset string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("could not fetch %s data: %v", e.Dataset, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
