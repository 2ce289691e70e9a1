package services

import (
	"context"
	"net/http"
	"net/url"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// CredentialService checks API keys against the backend verify endpoint.
// Any failure (network, non-OK status, malformed body) reads as invalid;
// Verify never returns an error.
type CredentialService struct {
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

func NewCredentialService(baseURL string, client *http.Client) *CredentialService {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &CredentialService{
		baseURL: baseURL,
		client:  client,
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("component", "credentials").Logger(),
	}
}

// Verify reports whether the key is valid and active.
func (s *CredentialService) Verify(ctx context.Context, apiKey string) bool {
	endpoint := s.baseURL + "/verify?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("key verification request failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.logger.Warn().Int("status", resp.StatusCode).Msg("key verification rejected")
		return false
	}

	var body struct {
		Valid bool `json:"valid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		s.logger.Warn().Err(err).Msg("key verification decode failed")
		return false
	}
	return body.Valid
}
