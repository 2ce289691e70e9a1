package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"mapkit/middleware"
	"mapkit/models"
	"mapkit/render"
	"mapkit/utils/errors"
)

// PlaceResolver turns a coordinate pair into a place record.
type PlaceResolver interface {
	Resolve(ctx context.Context, lat, lng float64) (models.PlaceRecord, error)
}

// PlaceHandler exposes the place-resolution pipeline to the widget page: it
// returns both the resolved record and the rendered popup fragment.
type PlaceHandler struct {
	resolver PlaceResolver
}

func NewPlaceHandler(resolver PlaceResolver) *PlaceHandler {
	return &PlaceHandler{resolver: resolver}
}

// PlaceDetails answers GET /api/place?lat=&lng=.
func (h *PlaceHandler) PlaceDetails(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}

	rec, err := h.resolver.Resolve(r.Context(), lat, lng)
	if err != nil {
		// The resolver degrades internally; an error here means the
		// pipeline could not even produce fallbacks.
		middleware.WriteError(w, errors.Wrap(err, "LOOKUP_FAILED", "Place lookup failed", http.StatusBadGateway))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"place": rec,
		"html":  render.Popup(rec),
	})
}
