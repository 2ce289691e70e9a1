package handlers

import (
	"html/template"
	"net/http"

	"mapkit/models"
	"mapkit/session"
)

// WidgetHandler serves the demo host page: a Leaflet map wired to the dev
// server's place, search and verify endpoints the same way the browser SDK
// wires them.
type WidgetHandler struct {
	apiKey string
}

func NewWidgetHandler(apiKey string) *WidgetHandler {
	return &WidgetHandler{apiKey: apiKey}
}

type widgetPageData struct {
	APIKey string
	Center models.Coordinates
	Zoom   int
	Layer  string
}

func (h *WidgetHandler) WidgetPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	widgetTmpl.Execute(w, widgetPageData{
		APIKey: h.apiKey,
		Center: session.DefaultCenter,
		Zoom:   session.DefaultZoom,
		Layer:  models.DefaultLayer,
	})
}

var widgetTmpl = template.Must(template.New("widget").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>mapkit demo</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="https://unpkg.com/leaflet/dist/leaflet.css" />
    <script src="https://unpkg.com/leaflet/dist/leaflet.js"></script>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; }
        #toolbar { padding: 8px; display: flex; gap: 8px; }
        #map { height: 90vh; }
        input { padding: 6px; width: 240px; }
        select, button { padding: 6px; cursor: pointer; }
    </style>
</head>
<body>
    <div id="toolbar">
        <input type="text" id="search" placeholder="e.g. best hospital nearby">
        <button onclick="runSearch()">Search</button>
        <select id="layer" onchange="switchLayer()">
            <option value="plain">Plain</option>
            <option value="terrain">Terrain</option>
            <option value="satellite">Satellite</option>
            <option value="dark">Dark</option>
        </select>
    </div>
    <div id="map"></div>

    <script>
        var apiKey = "{{.APIKey}}";
        var map = L.map('map').setView([{{.Center.Lat}}, {{.Center.Lng}}], {{.Zoom}});

        var layers = {
            plain: L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
                attribution: '&copy; OpenStreetMap contributors'
            }),
            terrain: L.tileLayer('https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png', {
                attribution: '&copy; OpenTopoMap'
            }),
            satellite: L.tileLayer('https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}', {
                attribution: '&copy; Esri'
            }),
            dark: L.tileLayer('https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}.png', {
                attribution: '&copy; OpenStreetMap contributors &copy; CARTO'
            })
        };
        var currentLayer = layers["{{.Layer}}"];
        currentLayer.addTo(map);

        var searchMarkers = [];

        map.on('click', function(e) {
            var popup = L.popup()
                .setLatLng(e.latlng)
                .setContent('<div class="mapkit-popup mapkit-loading">Loading place details...</div>')
                .openOn(map);

            fetch('/api/place?lat=' + e.latlng.lat + '&lng=' + e.latlng.lng)
                .then(function(r) { return r.json(); })
                .then(function(data) { popup.setContent(data.html); })
                .catch(function() {
                    popup.setContent('<div class="mapkit-popup mapkit-error">Unable to load place details</div>');
                });
        });

        function runSearch() {
            var query = document.getElementById('search').value.trim();
            if (query === "") { return; }
            var c = map.getCenter();

            searchMarkers.forEach(function(m) { map.removeLayer(m); });
            searchMarkers = [];

            fetch('/search?lat=' + c.lat + '&lon=' + c.lng + '&type=' + query + '&radius=5000', {
                headers: { 'X-API-Key': apiKey }
            })
                .then(function(r) { return r.json(); })
                .then(function(data) {
                    var results = data.results || [];
                    var bounds = [];
                    results.forEach(function(poi) {
                        var m = L.marker([poi.location.lat, poi.location.lng]).addTo(map)
                            .bindPopup(poi.name);
                        searchMarkers.push(m);
                        bounds.push([poi.location.lat, poi.location.lng]);
                    });
                    if (bounds.length > 0) {
                        map.fitBounds(bounds, { padding: [40, 40] });
                    }
                })
                .catch(function(err) { console.log('search error', err); });
        }

        function switchLayer() {
            var name = document.getElementById('layer').value;
            currentLayer.remove();
            currentLayer = layers[name] || layers.plain;
            currentLayer.addTo(map);
        }
    </script>
</body>
</html>
`))
