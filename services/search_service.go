package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"mapkit/models"
	"mapkit/utils/errors"
)

// GenericPOIType is the search type token used when no keyword matches.
const GenericPOIType = "poi"

// poiKeywords maps query substrings to backend POI-type tokens. Order is a
// tie-break policy: the first matching entry wins.
var poiKeywords = []struct {
	substr string
	token  string
}{
	{"hospital", "hospital"},
	{"pharmacy", "pharmacy"},
	{"clinic", "clinic"},
	{"restaurant", "restaurant"},
	{"gas", "fuel"},
	{"fuel", "fuel"},
	{"bank", "bank"},
	{"school", "school"},
	{"hotel", "hotel"},
	{"shop", "shop"},
	{"store", "shop"},
}

// DerivePOIType reduces a free-text query to a single backend type token.
func DerivePOIType(query string) string {
	q := strings.ToLower(query)
	for _, kw := range poiKeywords {
		if strings.Contains(q, kw.substr) {
			return kw.token
		}
	}
	return GenericPOIType
}

// SearchService queries the backend proximity-search endpoint. The API key
// travels in the X-API-Key header.
type SearchService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  zerolog.Logger
}

func NewSearchService(baseURL, apiKey string, client *http.Client) *SearchService {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &SearchService{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  client,
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("component", "search").Logger(),
	}
}

// Nearby returns POIs of the given type around the point. A missing
// `results` field reads as an empty list; a non-OK status is a failure.
func (s *SearchService) Nearby(ctx context.Context, lat, lng float64, poiType string, radius float64) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("type", poiType)
	params.Set("radius", strconv.FormatFloat(radius, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "SEARCH_FAILED", "failed to build search request", http.StatusInternalServerError)
	}
	req.Header.Set("X-API-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", poiType).Msg("search request failed")
		return nil, errors.Wrap(err, "SEARCH_FAILED", "search request failed", http.StatusBadGateway)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Str("type", poiType).Msg("search rejected")
		return nil, errors.NewAPIError("SEARCH_FAILED", fmt.Sprintf("search returned status %d", resp.StatusCode), http.StatusBadGateway)
	}

	var body struct {
		Results []models.SearchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "SEARCH_FAILED", "failed to decode search response", http.StatusBadGateway)
	}
	if body.Results == nil {
		return []models.SearchResult{}, nil
	}
	return body.Results, nil
}
