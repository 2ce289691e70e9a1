// Package mapkit is an embeddable map SDK: it drives an external map widget,
// resolves clicked coordinates into place records via public geodata APIs,
// renders HTML popup fragments, and validates API keys against a backend
// verify endpoint.
package mapkit

import (
	"context"
	"net/http"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"mapkit/models"
	"mapkit/services"
	"mapkit/session"
	"mapkit/utils/errors"
)

// Version is the SDK release version.
const Version = "1.0.0"

// Config wires the SDK against its backend and widget implementation.
type Config struct {
	// BackendURL is the base of the verify and search endpoints.
	BackendURL string
	// HTTPClient is shared by all outbound calls; nil gets a default
	// client with a 10s timeout.
	HTTPClient *http.Client
	// WidgetFactory constructs the widget for a container. Defaults to
	// the headless widget.
	WidgetFactory func(containerID string) models.MapWidget
}

// Options mirror the host-page init options. Nil pointer fields take their
// documented defaults (center 20.5937,78.9629, zoom 5, layer "plain",
// search and layer control enabled).
type Options struct {
	APIKey             string
	Center             *models.Coordinates
	Zoom               int
	Layer              string
	EnableSearch       *bool
	EnableLayerControl *bool
	// Widget overrides the SDK-level factory for this container.
	Widget models.MapWidget
}

// SDK is the keyed registry of map sessions.
type SDK struct {
	mu       sync.Mutex
	sessions map[string]*session.Session

	credentials *services.CredentialService
	resolver    *services.PlaceService
	cfg         Config
	logger      zerolog.Logger
}

func New(cfg Config) *SDK {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = services.DefaultHTTPClient()
	}
	if cfg.WidgetFactory == nil {
		cfg.WidgetFactory = func(string) models.MapWidget { return models.NewHeadlessWidget() }
	}
	return &SDK{
		sessions:    make(map[string]*session.Session),
		credentials: services.NewCredentialService(cfg.BackendURL, cfg.HTTPClient),
		resolver:    services.NewPlaceService(cfg.HTTPClient),
		cfg:         cfg,
		logger:      zerolog.New(os.Stderr).With().Timestamp().Str("component", "mapkit").Logger(),
	}
}

// Resolver exposes the place-resolution pipeline, mainly so hosts can point
// the geodata clients at self-hosted endpoints.
func (s *SDK) Resolver() *services.PlaceService { return s.resolver }

// Init validates the container and API key, verifies the key against the
// backend, and only then constructs and initializes a session. Re-using a
// container ID replaces the stored session; callers that want the previous
// session's widget released must destroy it first.
func (s *SDK) Init(ctx context.Context, containerID string, opts Options) (*session.Session, error) {
	if containerID == "" {
		return nil, errors.ErrMissingContainer
	}
	if opts.APIKey == "" {
		return nil, errors.ErrMissingAPIKey
	}
	if !s.credentials.Verify(ctx, opts.APIKey) {
		return nil, errors.ErrInvalidAPIKey
	}

	cfg := session.Config{
		Center:             session.DefaultCenter,
		Zoom:               session.DefaultZoom,
		Layer:              models.DefaultLayer,
		EnableSearch:       true,
		EnableLayerControl: true,
	}
	if opts.Center != nil {
		cfg.Center = *opts.Center
	}
	if opts.Zoom != 0 {
		cfg.Zoom = opts.Zoom
	}
	if opts.Layer != "" {
		cfg.Layer = opts.Layer
	}
	if opts.EnableSearch != nil {
		cfg.EnableSearch = *opts.EnableSearch
	}
	if opts.EnableLayerControl != nil {
		cfg.EnableLayerControl = *opts.EnableLayerControl
	}

	widget := opts.Widget
	if widget == nil {
		widget = s.cfg.WidgetFactory(containerID)
	}
	searcher := services.NewSearchService(s.cfg.BackendURL, opts.APIKey, s.cfg.HTTPClient)

	sess := session.New(containerID, widget, s.resolver, searcher, cfg)
	if err := sess.Init(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[containerID] = sess
	s.mu.Unlock()

	s.logger.Info().Str("container", containerID).Msg("map instance initialized")
	return sess, nil
}

// Search runs a POI search on the session bound to the container.
func (s *SDK) Search(ctx context.Context, containerID, query string, opts session.SearchOptions) ([]models.SearchResult, error) {
	sess, err := s.instance(containerID)
	if err != nil {
		return nil, err
	}
	return sess.Search(ctx, query, opts)
}

// GetPlaceDetails resolves a coordinate pair without needing a session.
func (s *SDK) GetPlaceDetails(ctx context.Context, lat, lng float64) (models.PlaceRecord, error) {
	return s.resolver.Resolve(ctx, lat, lng)
}

// ShowPopup renders a place record at a point on the container's widget.
func (s *SDK) ShowPopup(containerID string, lat, lng float64, rec models.PlaceRecord) error {
	sess, err := s.instance(containerID)
	if err != nil {
		return err
	}
	return sess.ShowPopup(models.Coordinates{Lat: lat, Lng: lng}, rec)
}

// Destroy tears down the session for a container and removes it from the
// registry. Unknown containers are an error, not a silent no-op.
func (s *SDK) Destroy(containerID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[containerID]
	if ok {
		delete(s.sessions, containerID)
	}
	s.mu.Unlock()

	if !ok {
		return errors.ErrUnknownContainer
	}
	sess.Destroy()
	return nil
}

// GetInstances lists the container IDs with a registered session.
func (s *SDK) GetInstances() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetVersion returns the SDK version string.
func (s *SDK) GetVersion() string { return Version }

func (s *SDK) instance(containerID string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[containerID]
	if !ok {
		return nil, errors.ErrUnknownContainer
	}
	return sess, nil
}
