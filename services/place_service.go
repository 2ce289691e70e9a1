package services

import (
	"context"
	"net/http"
	"strings"

	"mapkit/models"
)

// categoryKeys is the fixed priority order for the category formatter.
// It is a tie-break policy, not an alphabetical scan.
var categoryKeys = []string{
	"amenity",
	"shop",
	"building",
	"leisure",
	"tourism",
	"highway",
	"office",
	"craft",
}

// Contact-field tag precedence, evaluated in sequence.
var (
	phoneKeys = []string{"phone", "contact:phone"}
	hoursKeys = []string{"opening_hours", "contact:hours"}
	// The trailing generic "url" key is inherited behavior; it is kept
	// last so a dedicated website tag always wins.
	websiteKeys = []string{"website", "contact:website", "url"}
)

// PlaceService merges a reverse-geocode lookup and a nearby tag query into
// one PlaceRecord. Either lookup may fail independently; Resolve always
// returns a complete record, down to every field being a fallback.
type PlaceService struct {
	geocode  *GeocodeService
	overpass *OverpassService
}

func NewPlaceService(client *http.Client) *PlaceService {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &PlaceService{
		geocode:  NewGeocodeService(client),
		overpass: NewOverpassService(client),
	}
}

// Geocode exposes the underlying reverse-geocode client.
func (s *PlaceService) Geocode() *GeocodeService { return s.geocode }

// Overpass exposes the underlying tag-query client.
func (s *PlaceService) Overpass() *OverpassService { return s.overpass }

// Resolve produces the place record for a point.
func (s *PlaceService) Resolve(ctx context.Context, lat, lng float64) (models.PlaceRecord, error) {
	geo, err := s.geocode.Reverse(ctx, lat, lng)
	if err != nil {
		geo = nil
	}

	tags, err := s.overpass.NearestTagged(ctx, lat, lng)
	if err != nil || tags == nil {
		tags = models.TagBag{}
	}

	return BuildPlaceRecord(lat, lng, geo, tags), nil
}

// BuildPlaceRecord applies the field precedence rules over the lookup
// results. geo may be nil; tags must be non-nil.
func BuildPlaceRecord(lat, lng float64, geo *GeocodeResult, tags models.TagBag) models.PlaceRecord {
	rec := models.PlaceRecord{
		Name:        models.UnknownName,
		Address:     models.NoAddress,
		Category:    FormatCategory(tags),
		Phone:       firstTag(tags, phoneKeys, models.NotAvailable),
		Website:     firstTag(tags, websiteKeys, ""),
		Hours:       firstTag(tags, hoursKeys, models.NotAvailable),
		Coordinates: models.Coordinates{Lat: lat, Lng: lng},
	}

	// Name precedence: tag name, geocode short name, first comma segment
	// of the display string, literal fallback.
	switch {
	case tags["name"] != "":
		rec.Name = tags["name"]
	case geo != nil && geo.Name != "":
		rec.Name = geo.Name
	case geo != nil && geo.DisplayName != "":
		rec.Name = strings.TrimSpace(strings.SplitN(geo.DisplayName, ",", 2)[0])
	}

	if geo != nil && geo.DisplayName != "" {
		rec.Address = geo.DisplayName
	}

	return rec
}

// FormatCategory picks the first populated category tag and formats it for
// display: underscores become spaces, each word is capitalized. Returns
// "Location" when no candidate key has a value.
func FormatCategory(tags models.TagBag) string {
	for _, key := range categoryKeys {
		if value := tags[key]; value != "" {
			return titleCase(value)
		}
	}
	return models.FallbackCategory
}

func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func firstTag(tags models.TagBag, keys []string, fallback string) string {
	for _, key := range keys {
		if value := tags[key]; value != "" {
			return value
		}
	}
	return fallback
}
