package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"

	"mapkit/middleware"
	"mapkit/models"
	"mapkit/services"
	"mapkit/utils/errors"
)

// POIFinder is the slice of the POI store the handler needs.
type POIFinder interface {
	Nearby(ctx context.Context, lat, lon, radius float64, poiType string) ([]models.SearchResult, error)
}

// SearchHandler serves the proximity-search endpoint the SDK queries.
type SearchHandler struct {
	pois POIFinder
}

type searchResponse struct {
	Results []models.SearchResult `json:"results"`
	Count   int                   `json:"count"`
	Lat     float64               `json:"lat"`
	Lon     float64               `json:"lon"`
	Radius  float64               `json:"radius"`
	Type    string                `json:"type"`
}

func NewSearchHandler(pois POIFinder) *SearchHandler {
	return &SearchHandler{pois: pois}
}

// Search answers GET /search?lat=&lon=&type=&radius=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	radius, err := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	if err != nil || radius <= 0 {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	// Idempotent on already-derived tokens, so both the SDK (which sends
	// tokens) and the demo page (which sends raw queries) can call this.
	poiType := services.DerivePOIType(r.URL.Query().Get("type"))

	results, err := h.pois.Nearby(r.Context(), lat, lon, radius, poiType)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searchResponse{
		Results: results,
		Count:   len(results),
		Lat:     lat,
		Lon:     lon,
		Radius:  radius,
		Type:    poiType,
	})
}
