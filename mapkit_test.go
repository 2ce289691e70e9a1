package mapkit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapkit/models"
	"mapkit/session"
	"mapkit/utils/errors"
)

// fakeBackend implements the verify and search endpoints the SDK expects.
func fakeBackend(t *testing.T, validKeys map[string]bool, results []models.SearchResult) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/verify", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"valid": validKeys[r.URL.Query().Get("key")]})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if !validKeys[r.Header.Get("X-API-Key")] {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})
	return httptest.NewServer(mux)
}

func TestInitValidation(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	t.Run("missing container", func(t *testing.T) {
		_, err := sdk.Init(context.Background(), "", Options{APIKey: "good-key"})
		assert.ErrorIs(t, err, errors.ErrMissingContainer)
	})
	t.Run("missing api key", func(t *testing.T) {
		_, err := sdk.Init(context.Background(), "map-1", Options{})
		assert.ErrorIs(t, err, errors.ErrMissingAPIKey)
	})
	t.Run("invalid api key", func(t *testing.T) {
		_, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "bad-key"})
		assert.ErrorIs(t, err, errors.ErrInvalidAPIKey)
		assert.Empty(t, sdk.GetInstances(), "failed init must not register a session")
	})
}

func TestInitAndRegistry(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	sess, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key"})
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, []string{"map-1"}, sdk.GetInstances())

	// Re-initializing the same container replaces the stored session.
	replacement, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key"})
	require.NoError(t, err)
	assert.NotSame(t, sess, replacement)
	assert.Equal(t, []string{"map-1"}, sdk.GetInstances())
}

func TestInitDefaults(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	widget := models.NewHeadlessWidget()
	_, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key", Widget: widget})
	require.NoError(t, err)

	center, zoom, layer := widget.View()
	assert.Equal(t, session.DefaultCenter, center)
	assert.Equal(t, session.DefaultZoom, zoom)
	assert.Equal(t, models.DefaultLayer, layer)
}

func TestInitUnknownLayerSubstituted(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	widget := models.NewHeadlessWidget()
	sess, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key", Widget: widget, Layer: "volcanic"})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLayer, sess.Layer())
}

func TestFacadeSearch(t *testing.T) {
	results := []models.SearchResult{
		{ID: "p1", Name: "General Hospital", Type: "hospital", Location: models.Coordinates{Lat: 1, Lng: 2}},
	}
	backend := fakeBackend(t, map[string]bool{"good-key": true}, results)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	widget := models.NewHeadlessWidget()
	_, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key", Widget: widget})
	require.NoError(t, err)

	got, err := sdk.Search(context.Background(), "map-1", "best hospital nearby", session.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "General Hospital", got[0].Name)
	assert.Len(t, widget.Markers(), 1)

	_, err = sdk.Search(context.Background(), "nope", "hospital", session.SearchOptions{})
	assert.ErrorIs(t, err, errors.ErrUnknownContainer)
}

func TestFacadeDestroy(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	sess, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key"})
	require.NoError(t, err)

	require.NoError(t, sdk.Destroy("map-1"))
	assert.True(t, sess.Destroyed())
	assert.Empty(t, sdk.GetInstances())

	// Unknown containers fail loudly rather than silently no-op.
	assert.ErrorIs(t, sdk.Destroy("map-1"), errors.ErrUnknownContainer)
	assert.ErrorIs(t, sdk.Destroy("never-existed"), errors.ErrUnknownContainer)
}

func TestShowPopup(t *testing.T) {
	backend := fakeBackend(t, map[string]bool{"good-key": true}, nil)
	defer backend.Close()
	sdk := New(Config{BackendURL: backend.URL})

	widget := models.NewHeadlessWidget()
	_, err := sdk.Init(context.Background(), "map-1", Options{APIKey: "good-key", Widget: widget})
	require.NoError(t, err)

	rec := models.PlaceRecord{Name: "Somewhere", Address: "An address", Category: "Cafe", Phone: models.NotAvailable, Hours: models.NotAvailable}
	require.NoError(t, sdk.ShowPopup("map-1", 1, 2, rec))

	contents := widget.PopupContents()
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "Somewhere")

	assert.ErrorIs(t, sdk.ShowPopup("nope", 1, 2, rec), errors.ErrUnknownContainer)
}

func TestGetVersion(t *testing.T) {
	sdk := New(Config{})
	assert.Equal(t, Version, sdk.GetVersion())
}
