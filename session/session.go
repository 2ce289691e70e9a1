// Package session holds the per-container map session: the widget handle,
// the marker list, the event registry and the click-to-popup flow.
package session

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"mapkit/models"
	"mapkit/render"
	"mapkit/services"
	"mapkit/utils/errors"
)

// Default view applied when init options leave it unset.
var DefaultCenter = models.Coordinates{Lat: 20.5937, Lng: 78.9629}

const (
	DefaultZoom = 5

	// defaultSearchRadius is the proximity radius in meters for searches.
	defaultSearchRadius = 5000

	// fitPadding is the fixed padding factor applied when bounding
	// search results.
	fitPadding = 0.1
)

// PlaceResolver turns a coordinate pair into a place record.
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (models.PlaceRecord, error)
}

// Searcher queries the backend for nearby POIs of a given type.
type Searcher interface {
	Nearby(ctx context.Context, lat, lng float64, poiType string, radius float64) ([]models.SearchResult, error)
}

// Config is the normalized per-session configuration. The facade fills in
// defaults before constructing a session.
type Config struct {
	Center             models.Coordinates
	Zoom               int
	Layer              string
	EnableSearch       bool
	EnableLayerControl bool
}

// SearchOptions tune a single search call.
type SearchOptions struct {
	Radius float64
}

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateReady
	stateDestroyed
)

// Session binds one map-widget instance to the place-resolution pipeline.
// Lifecycle is uninitialized -> ready -> destroyed; a destroyed session is
// never revived, and lookup completions arriving after Destroy are no-ops.
type Session struct {
	mu          sync.Mutex
	containerID string
	widget      models.MapWidget
	resolver    PlaceResolver
	searcher    Searcher
	events      *eventRegistry
	logger      zerolog.Logger

	cfg     Config
	center  models.Coordinates
	zoom    int
	layer   string
	markers []string
	state   sessionState
}

func New(containerID string, widget models.MapWidget, resolver PlaceResolver, searcher Searcher, cfg Config) *Session {
	logger := zerolog.New(os.Stderr).With().Timestamp().
		Str("component", "session").Str("container", containerID).Logger()

	if cfg.Layer == "" {
		cfg.Layer = models.DefaultLayer
	}
	if cfg.Zoom == 0 {
		cfg.Zoom = DefaultZoom
	}
	if (cfg.Center == models.Coordinates{}) {
		cfg.Center = DefaultCenter
	}

	return &Session{
		containerID: containerID,
		widget:      widget,
		resolver:    resolver,
		searcher:    searcher,
		events:      newEventRegistry(logger),
		logger:      logger,
		cfg:         cfg,
	}
}

// Init wires the widget and transitions the session to ready.
func (s *Session) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateDestroyed {
		return errors.ErrSessionDestroyed
	}
	if s.state == stateReady {
		return nil
	}

	layer := s.cfg.Layer
	if !models.ValidLayer(layer) {
		s.logger.Warn().Str("layer", layer).Msg("unknown layer, using default")
		layer = models.DefaultLayer
	}

	s.center = s.cfg.Center
	s.zoom = s.cfg.Zoom
	s.layer = layer

	s.widget.SetView(s.center, s.zoom)
	s.widget.SetLayer(layer)
	s.widget.OnClick(s.handleClick)
	s.state = stateReady
	return nil
}

func (s *Session) ContainerID() string { return s.containerID }

// Destroyed reports whether the session has been torn down.
func (s *Session) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateDestroyed
}

// handleClick opens a loading popup at the clicked point and starts an
// independent resolution pipeline. Concurrent clicks each get their own
// popup handle; no completion ordering is guaranteed across them.
func (s *Session) handleClick(at models.Coordinates) {
	s.mu.Lock()
	if s.state != stateReady {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	popupID := s.widget.ShowPopup(at, render.LoadingFragment)
	go s.resolveInto(popupID, at)
}

// resolveInto settles a loading popup with either the rendered place or the
// error fragment. If the session was destroyed while the lookup was in
// flight, the completion is dropped instead of touching released state.
func (s *Session) resolveInto(popupID string, at models.Coordinates) {
	rec, err := s.resolver.Resolve(context.Background(), at.Lat, at.Lng)

	s.mu.Lock()
	destroyed := s.state == stateDestroyed
	s.mu.Unlock()
	if destroyed {
		return
	}

	if err != nil {
		s.logger.Warn().Err(err).Msg("place resolution failed")
		s.widget.UpdatePopup(popupID, render.ErrorFragment)
		s.events.publish(EventPlaceError, err)
		return
	}

	s.widget.UpdatePopup(popupID, render.Popup(rec))
	s.events.publish(EventPlaceResolved, rec)
}

// Search resolves the query to a POI type, replaces the current search
// markers with the results, and fits the view around them. On failure the
// markers stay cleared, an empty list is returned, and a failure event is
// published.
func (s *Session) Search(ctx context.Context, query string, opts SearchOptions) ([]models.SearchResult, error) {
	s.mu.Lock()
	if s.state == stateDestroyed {
		s.mu.Unlock()
		return nil, errors.ErrSessionDestroyed
	}
	if !s.cfg.EnableSearch {
		s.mu.Unlock()
		return nil, errors.NewAPIError("SEARCH_DISABLED", "search is disabled for this map instance", http.StatusBadRequest)
	}
	center := s.center
	s.clearMarkersLocked()
	s.mu.Unlock()

	radius := opts.Radius
	if radius <= 0 {
		radius = defaultSearchRadius
	}
	poiType := services.DerivePOIType(query)

	results, err := s.searcher.Nearby(ctx, center.Lat, center.Lng, poiType, radius)
	if err != nil {
		s.logger.Warn().Err(err).Str("type", poiType).Msg("search failed")
		s.events.publish(EventSearchError, err)
		return []models.SearchResult{}, err
	}

	s.mu.Lock()
	if s.state == stateDestroyed {
		s.mu.Unlock()
		return []models.SearchResult{}, errors.ErrSessionDestroyed
	}
	points := make([]models.Coordinates, 0, len(results))
	for _, r := range results {
		id := s.widget.AddMarker(models.Marker{
			Position: r.Location,
			Title:    r.Name,
			Popup:    render.Popup(searchResultRecord(r)),
		})
		s.markers = append(s.markers, id)
		points = append(points, r.Location)
	}
	s.mu.Unlock()

	if len(points) > 0 {
		s.widget.FitBounds(points, fitPadding)
	}
	s.events.publish(EventSearchResults, results)
	return results, nil
}

// searchResultRecord shapes a backend search hit like a resolved place so
// marker popups render through the same template.
func searchResultRecord(r models.SearchResult) models.PlaceRecord {
	rec := models.PlaceRecord{
		Name:        r.Name,
		Address:     r.Address,
		Category:    services.FormatCategory(models.TagBag{"amenity": r.Type}),
		Phone:       models.NotAvailable,
		Hours:       models.NotAvailable,
		Coordinates: r.Location,
	}
	if rec.Name == "" {
		rec.Name = models.UnknownName
	}
	if rec.Address == "" {
		rec.Address = models.NoAddress
	}
	return rec
}

// SetView recenters the widget.
func (s *Session) SetView(center models.Coordinates, zoom int) {
	s.mu.Lock()
	if s.state != stateReady {
		s.mu.Unlock()
		return
	}
	s.center = center
	s.zoom = zoom
	s.mu.Unlock()
	s.widget.SetView(center, zoom)
}

// SetLayer switches the basemap layer. An unrecognized name is substituted
// with the default and logged, not rejected.
func (s *Session) SetLayer(layer string) {
	if !models.ValidLayer(layer) {
		s.logger.Warn().Str("layer", layer).Msg("unknown layer, using default")
		layer = models.DefaultLayer
	}
	s.mu.Lock()
	if s.state != stateReady {
		s.mu.Unlock()
		return
	}
	s.layer = layer
	s.mu.Unlock()
	s.widget.SetLayer(layer)
}

// Layer returns the active basemap layer.
func (s *Session) Layer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layer
}

// On subscribes to a named event.
func (s *Session) On(event string, fn EventHandler) Subscription {
	return s.events.subscribe(event, fn)
}

// Off removes a subscription.
func (s *Session) Off(sub Subscription) {
	s.events.unsubscribe(sub)
}

// ShowPopup renders the given record at a point on this session's widget.
func (s *Session) ShowPopup(at models.Coordinates, rec models.PlaceRecord) error {
	s.mu.Lock()
	if s.state != stateReady {
		s.mu.Unlock()
		return errors.ErrSessionDestroyed
	}
	s.mu.Unlock()
	s.widget.ShowPopup(at, render.Popup(rec))
	return nil
}

// Destroy removes all markers, releases the widget and clears every event
// subscription. Calling it on an already-destroyed session is a no-op.
func (s *Session) Destroy() {
	s.mu.Lock()
	if s.state == stateDestroyed {
		s.mu.Unlock()
		return
	}
	s.state = stateDestroyed
	ids := s.markers
	s.markers = nil
	s.mu.Unlock()

	for _, id := range ids {
		s.widget.RemoveMarker(id)
	}
	s.widget.Close()
	s.events.publish(EventDestroyed, s.containerID)
	s.events.clear()
}

func (s *Session) clearMarkersLocked() {
	for _, id := range s.markers {
		s.widget.RemoveMarker(id)
	}
	s.markers = nil
}
