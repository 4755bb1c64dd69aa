package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// lookupTimeout bounds every individual provider call. Geolocation is
// best-effort; a slow provider must not hold up the chain.
const lookupTimeout = 5 * time.Second

// getJSON executes a GET through the provider's circuit breaker and decodes
// the JSON body into out regardless of status, since these providers return
// structured error payloads on non-2xx responses. The status code is returned
// for the caller to interpret. Nothing is retried within the call; the
// breaker only sheds load across calls.
func getJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, url string, out any) (int, error) {
	status, err := cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, err
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return 0, err
	}
	return status.(int), nil
}

// orUnknown substitutes the placeholder for fields the provider omitted.
func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}
