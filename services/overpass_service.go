package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"mapkit/models"
)

const (
	// OverpassBaseURL is the public Overpass API interpreter endpoint.
	OverpassBaseURL = "https://overpass-api.de/api/interpreter"

	// tagQueryRadius is the proximity radius in meters for the tag lookup
	// around a clicked point.
	tagQueryRadius = 30

	// tagQueryTemplate selects named nodes around the point. Only the first
	// returned element is consumed.
	tagQueryTemplate = `[out:json];node(around:%d,%.6f,%.6f)["name"];out 1;`
)

type overpassElement struct {
	Type string            `json:"type"`
	ID   int64             `json:"id"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// OverpassService queries the community mapping dataset for tagged features
// near a point.
type OverpassService struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[models.TagBag]
	logger   zerolog.Logger
}

func NewOverpassService(client *http.Client) *OverpassService {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &OverpassService{
		endpoint: OverpassBaseURL,
		client:   client,
		breaker:  newLookupBreaker[models.TagBag]("overpass"),
		logger:   zerolog.New(os.Stderr).With().Timestamp().Str("component", "overpass").Logger(),
	}
}

func (s *OverpassService) WithEndpoint(endpoint string) *OverpassService {
	s.endpoint = endpoint
	return s
}

// NearestTagged returns the tag bag of the closest named feature around the
// point, or an empty bag when nothing is tagged there.
func (s *OverpassService) NearestTagged(ctx context.Context, lat, lng float64) (models.TagBag, error) {
	tags, err := s.breaker.Execute(func() (models.TagBag, error) {
		return s.query(ctx, lat, lng)
	})
	if err != nil {
		s.logger.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("tag query failed")
		return nil, err
	}
	return tags, nil
}

func (s *OverpassService) query(ctx context.Context, lat, lng float64) (models.TagBag, error) {
	query := fmt.Sprintf(tagQueryTemplate, tagQueryRadius, lat, lng)
	body := url.Values{"data": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass: unexpected status %d", resp.StatusCode)
	}

	var decoded overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("overpass: decode: %w", err)
	}

	if len(decoded.Elements) == 0 {
		return models.TagBag{}, nil
	}
	tags := decoded.Elements[0].Tags
	if tags == nil {
		return models.TagBag{}, nil
	}
	return models.TagBag(tags), nil
}
