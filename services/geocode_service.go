package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	// NominatimBaseURL is the public reverse-geocoding endpoint.
	// Requests must carry a User-Agent per the Nominatim usage policy.
	NominatimBaseURL = "https://nominatim.openstreetmap.org"

	userAgent = "mapkit-sdk/1.0.0"

	reverseZoom = 18
)

// GeocodeResult is the subset of the Nominatim reverse response the SDK
// consumes. Both fields are optional in the upstream payload.
type GeocodeResult struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

// GeocodeService resolves coordinates to addresses via Nominatim. Calls go
// through a circuit breaker so a flapping upstream degrades to the same
// fallback path as an ordinary lookup failure.
type GeocodeService struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*GeocodeResult]
	logger  zerolog.Logger
}

func NewGeocodeService(client *http.Client) *GeocodeService {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &GeocodeService{
		baseURL: NominatimBaseURL,
		client:  client,
		breaker: newLookupBreaker[*GeocodeResult]("nominatim"),
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("component", "geocode").Logger(),
	}
}

// WithBaseURL points the service at a different endpoint. Used by tests and
// self-hosted Nominatim deployments.
func (s *GeocodeService) WithBaseURL(base string) *GeocodeService {
	s.baseURL = base
	return s
}

// Reverse looks up the address at the given point.
func (s *GeocodeService) Reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	result, err := s.breaker.Execute(func() (*GeocodeResult, error) {
		return s.reverse(ctx, lat, lng)
	})
	if err != nil {
		s.logger.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("reverse geocode failed")
		return nil, err
	}
	return result, nil
}

func (s *GeocodeService) reverse(ctx context.Context, lat, lng float64) (*GeocodeResult, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("zoom", fmt.Sprintf("%d", reverseZoom))
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	var result GeocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("nominatim: decode: %w", err)
	}
	return &result, nil
}

// DefaultHTTPClient returns the client used for geodata API requests when
// the caller does not supply one.
func DefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

// newLookupBreaker builds the breaker shared by the geodata clients: trip
// after 5 consecutive failures, retry after 30 seconds.
func newLookupBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}
