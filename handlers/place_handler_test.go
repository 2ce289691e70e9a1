package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapkit/models"
)

type fakePlaceResolver struct {
	record models.PlaceRecord
	err    error
}

func (f *fakePlaceResolver) Resolve(ctx context.Context, lat, lng float64) (models.PlaceRecord, error) {
	return f.record, f.err
}

func TestPlaceDetailsEndpoint(t *testing.T) {
	h := NewPlaceHandler(&fakePlaceResolver{record: models.PlaceRecord{
		Name:     "Corner Cafe",
		Address:  "5 Main St",
		Category: "Cafe",
		Phone:    models.NotAvailable,
		Hours:    models.NotAvailable,
	}})

	rr := httptest.NewRecorder()
	h.PlaceDetails(rr, httptest.NewRequest("GET", "/api/place?lat=1.3&lng=103.8", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Place models.PlaceRecord `json:"place"`
		HTML  string             `json:"html"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Corner Cafe", body.Place.Name)
	assert.Contains(t, body.HTML, "Corner Cafe")
	assert.Contains(t, body.HTML, "mapkit-popup")
}

func TestPlaceDetailsValidation(t *testing.T) {
	h := NewPlaceHandler(&fakePlaceResolver{})

	for _, target := range []string{"/api/place?lng=1", "/api/place?lat=1", "/api/place?lat=x&lng=y"} {
		rr := httptest.NewRecorder()
		h.PlaceDetails(rr, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}
