package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapkit/models"
)

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		name string
		tags models.TagBag
		want string
	}{
		{"empty bag", models.TagBag{}, "Location"},
		{"no formatter keys", models.TagBag{"name": "Central Park", "operator": "City"}, "Location"},
		{"underscores and casing", models.TagBag{"shop": "convenience_store"}, "Convenience Store"},
		{"single word", models.TagBag{"amenity": "hospital"}, "Hospital"},
		{"amenity beats shop", models.TagBag{"amenity": "cafe", "shop": "bakery"}, "Cafe"},
		{"shop beats building", models.TagBag{"shop": "convenience_store", "building": "retail"}, "Convenience Store"},
		{"building beats tourism", models.TagBag{"building": "train_station", "tourism": "attraction"}, "Train Station"},
		{"empty value skipped", models.TagBag{"amenity": "", "shop": "greengrocer"}, "Greengrocer"},
		{"craft last", models.TagBag{"craft": "shoemaker"}, "Shoemaker"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCategory(tt.tags))
		})
	}
}

func TestBuildPlaceRecordNamePrecedence(t *testing.T) {
	geo := &GeocodeResult{Name: "Short Name", DisplayName: "First Segment, City, Country"}

	t.Run("tag name wins", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, geo, models.TagBag{"name": "Tagged Name"})
		assert.Equal(t, "Tagged Name", rec.Name)
	})
	t.Run("geocode short name", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, geo, models.TagBag{})
		assert.Equal(t, "Short Name", rec.Name)
	})
	t.Run("first comma segment", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, &GeocodeResult{DisplayName: "First Segment, City, Country"}, models.TagBag{})
		assert.Equal(t, "First Segment", rec.Name)
	})
	t.Run("unknown location", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, nil, models.TagBag{})
		assert.Equal(t, models.UnknownName, rec.Name)
	})
}

func TestBuildPlaceRecordFields(t *testing.T) {
	t.Run("address from display name", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, &GeocodeResult{DisplayName: "5 Main St, Town"}, models.TagBag{})
		assert.Equal(t, "5 Main St, Town", rec.Address)
	})
	t.Run("address fallback", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, nil, models.TagBag{})
		assert.Equal(t, models.NoAddress, rec.Address)
	})
	t.Run("phone precedence", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, nil, models.TagBag{"phone": "111", "contact:phone": "222"})
		assert.Equal(t, "111", rec.Phone)

		rec = BuildPlaceRecord(1, 2, nil, models.TagBag{"contact:phone": "222"})
		assert.Equal(t, "222", rec.Phone)

		rec = BuildPlaceRecord(1, 2, nil, models.TagBag{})
		assert.Equal(t, models.NotAvailable, rec.Phone)
	})
	t.Run("hours precedence", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, nil, models.TagBag{"opening_hours": "Mo-Fr 9-5", "contact:hours": "other"})
		assert.Equal(t, "Mo-Fr 9-5", rec.Hours)

		rec = BuildPlaceRecord(1, 2, nil, models.TagBag{})
		assert.Equal(t, models.NotAvailable, rec.Hours)
	})
	t.Run("website yields absent not sentinel", func(t *testing.T) {
		rec := BuildPlaceRecord(1, 2, nil, models.TagBag{})
		assert.Equal(t, "", rec.Website)

		rec = BuildPlaceRecord(1, 2, nil, models.TagBag{"url": "http://example.com"})
		assert.Equal(t, "http://example.com", rec.Website)

		rec = BuildPlaceRecord(1, 2, nil, models.TagBag{"website": "https://a.example", "url": "http://b.example"})
		assert.Equal(t, "https://a.example", rec.Website)
	})
	t.Run("coordinates pass through", func(t *testing.T) {
		rec := BuildPlaceRecord(12.5, -70.25, nil, models.TagBag{})
		assert.Equal(t, models.Coordinates{Lat: 12.5, Lng: -70.25}, rec.Coordinates)
	})
}

func TestResolveMergesLookups(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{"name":"Geo Name","display_name":"Geo Name, City, Country"}`))
	}))
	defer nominatim.Close()

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), "around:30")
		w.Write([]byte(`{"elements":[{"type":"node","id":1,"lat":1,"lon":2,"tags":{"name":"Corner Cafe","amenity":"cafe","phone":"+65 1234"}}]}`))
	}))
	defer overpass.Close()

	svc := NewPlaceService(nil)
	svc.Geocode().WithBaseURL(nominatim.URL)
	svc.Overpass().WithEndpoint(overpass.URL)

	rec, err := svc.Resolve(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Corner Cafe", rec.Name)
	assert.Equal(t, "Geo Name, City, Country", rec.Address)
	assert.Equal(t, "Cafe", rec.Category)
	assert.Equal(t, "+65 1234", rec.Phone)
}

func TestResolveDegradesGracefully(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	svc := NewPlaceService(nil)
	svc.Geocode().WithBaseURL(failing.URL)
	svc.Overpass().WithEndpoint(failing.URL)

	rec, err := svc.Resolve(context.Background(), 3, 4)
	require.NoError(t, err)
	assert.Equal(t, models.UnknownName, rec.Name)
	assert.Equal(t, models.NoAddress, rec.Address)
	assert.Equal(t, models.FallbackCategory, rec.Category)
	assert.Equal(t, models.NotAvailable, rec.Phone)
	assert.Equal(t, models.NotAvailable, rec.Hours)
	assert.Equal(t, "", rec.Website)
	assert.Equal(t, models.Coordinates{Lat: 3, Lng: 4}, rec.Coordinates)
}

func TestResolveDegradesWithBreakerOpen(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	svc := NewPlaceService(nil)
	svc.Geocode().WithBaseURL(failing.URL)
	svc.Overpass().WithEndpoint(failing.URL)

	// Enough consecutive failures to trip both breakers; Resolve must keep
	// returning complete fallback records either way.
	for i := 0; i < 8; i++ {
		rec, err := svc.Resolve(context.Background(), 3, 4)
		require.NoError(t, err)
		assert.Equal(t, models.UnknownName, rec.Name)
		assert.Equal(t, models.FallbackCategory, rec.Category)
	}
}

func TestResolveEmptyOverpassResult(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"display_name":"Somewhere, Nowhere"}`))
	}))
	defer nominatim.Close()

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"elements":[]}`))
	}))
	defer overpass.Close()

	svc := NewPlaceService(nil)
	svc.Geocode().WithBaseURL(nominatim.URL)
	svc.Overpass().WithEndpoint(overpass.URL)

	rec, err := svc.Resolve(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Somewhere", rec.Name)
	assert.Equal(t, models.FallbackCategory, rec.Category)
}
