package models

// NotAvailable is the sentinel stored in PlaceRecord contact fields when no
// tag provided a value. The popup renderer suppresses lines carrying it.
const NotAvailable = "Not available"

// FallbackCategory is what the category formatter returns when no known
// category tag is present.
const FallbackCategory = "Location"

// UnknownName is the last-resort place name when both the tag bag and the
// reverse geocoder came up empty.
const UnknownName = "Unknown Location"

// NoAddress is the address fallback when reverse geocoding fails.
const NoAddress = "Address not available"

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceRecord is the merged result of a reverse-geocode lookup and a nearby
// tag query. It is constructed fresh on every lookup and never mutated.
// Phone and Hours carry NotAvailable when missing; Website is empty when
// missing so callers can distinguish "no link" from a displayable sentinel.
type PlaceRecord struct {
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Category    string      `json:"category"`
	Phone       string      `json:"phone"`
	Website     string      `json:"website,omitempty"`
	Hours       string      `json:"hours"`
	Coordinates Coordinates `json:"coordinates"`
}

// TagBag is free-form key/value metadata attached to a geographic feature.
// Read-only once received.
type TagBag map[string]string

// SearchResult is one entry returned by the backend proximity search.
type SearchResult struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Address  string      `json:"address,omitempty"`
	Location Coordinates `json:"location"`
	Distance float64     `json:"distance,omitempty"`
}

// Marker describes a pin placed on the map widget.
type Marker struct {
	ID       string      `json:"id"`
	Position Coordinates `json:"position"`
	Title    string      `json:"title,omitempty"`
	Popup    string      `json:"popup,omitempty"`
}

// Basemap layer identifiers accepted by SetLayer and init options.
const (
	LayerPlain     = "plain"
	LayerTerrain   = "terrain"
	LayerSatellite = "satellite"
	LayerDark      = "dark"
)

// DefaultLayer is substituted (with a warning) for unrecognized layer names.
const DefaultLayer = LayerPlain

var layers = map[string]bool{
	LayerPlain:     true,
	LayerTerrain:   true,
	LayerSatellite: true,
	LayerDark:      true,
}

func ValidLayer(name string) bool {
	return layers[name]
}
