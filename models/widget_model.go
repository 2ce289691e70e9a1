package models

import (
	"sync"

	"github.com/google/uuid"
)

// MapWidget is the surface the SDK drives on the embedding map library.
// Tile loading, panning and zooming belong to the implementation; the SDK
// only ever orchestrates through this interface.
type MapWidget interface {
	SetView(center Coordinates, zoom int)
	SetLayer(layer string)
	AddMarker(m Marker) string
	RemoveMarker(id string)
	// FitBounds adjusts the view so all points are visible, with a padding
	// factor applied around the bounding box.
	FitBounds(points []Coordinates, padding float64)
	// ShowPopup opens a popup at the given point and returns its handle.
	ShowPopup(at Coordinates, html string) string
	// UpdatePopup replaces the content of an open popup in place.
	UpdatePopup(id string, html string)
	// OnClick registers the click callback. At most one is kept.
	OnClick(fn func(Coordinates))
	// Close releases the widget instance. No calls are valid afterwards.
	Close()
}

// HeadlessWidget is a MapWidget that records state instead of drawing.
// Hosts that render remotely (and the test suite) use it as the widget
// backing a session.
type HeadlessWidget struct {
	mu      sync.Mutex
	center  Coordinates
	zoom    int
	layer   string
	markers map[string]Marker
	popups  map[string]string
	onClick func(Coordinates)
	closed  bool
}

func NewHeadlessWidget() *HeadlessWidget {
	return &HeadlessWidget{
		markers: make(map[string]Marker),
		popups:  make(map[string]string),
	}
}

func (w *HeadlessWidget) SetView(center Coordinates, zoom int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.center = center
	w.zoom = zoom
}

func (w *HeadlessWidget) SetLayer(layer string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.layer = layer
}

func (w *HeadlessWidget) AddMarker(m Marker) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ""
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	w.markers[m.ID] = m
	return m.ID
}

func (w *HeadlessWidget) RemoveMarker(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.markers, id)
}

func (w *HeadlessWidget) FitBounds(points []Coordinates, padding float64) {
	if len(points) == 0 {
		return
	}
	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lng < minLng {
			minLng = p.Lng
		}
		if p.Lng > maxLng {
			maxLng = p.Lng
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.center = Coordinates{Lat: (minLat + maxLat) / 2, Lng: (minLng + maxLng) / 2}
}

func (w *HeadlessWidget) ShowPopup(at Coordinates, html string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ""
	}
	id := uuid.New().String()
	w.popups[id] = html
	return id
}

func (w *HeadlessWidget) UpdatePopup(id string, html string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, ok := w.popups[id]; ok {
		w.popups[id] = html
	}
}

func (w *HeadlessWidget) OnClick(fn func(Coordinates)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onClick = fn
}

// Click simulates a user click on the map, invoking the registered callback.
func (w *HeadlessWidget) Click(at Coordinates) {
	w.mu.Lock()
	fn := w.onClick
	w.mu.Unlock()
	if fn != nil {
		fn(at)
	}
}

func (w *HeadlessWidget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.onClick = nil
	w.markers = make(map[string]Marker)
	w.popups = make(map[string]string)
}

// Markers returns a snapshot of the currently placed markers.
func (w *HeadlessWidget) Markers() []Marker {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Marker, 0, len(w.markers))
	for _, m := range w.markers {
		out = append(out, m)
	}
	return out
}

// PopupContents returns the content of every open popup.
func (w *HeadlessWidget) PopupContents() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.popups))
	for _, html := range w.popups {
		out = append(out, html)
	}
	return out
}

// Popup returns the current content of a popup handle.
func (w *HeadlessWidget) Popup(id string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	html, ok := w.popups[id]
	return html, ok
}

// View returns the current center, zoom and layer.
func (w *HeadlessWidget) View() (Coordinates, int, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.center, w.zoom, w.layer
}
