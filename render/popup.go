// Package render formats place records into HTML popup fragments. All
// dynamic text goes through html/template escaping; only the structural
// markup and the literal icons are emitted raw.
package render

import (
	"html/template"
	"strings"

	"mapkit/models"
)

// LoadingFragment is shown while a place resolution is in flight.
const LoadingFragment = `<div class="mapkit-popup mapkit-loading">Loading place details...</div>`

// ErrorFragment replaces the loading fragment when resolution fails.
const ErrorFragment = `<div class="mapkit-popup mapkit-error">Unable to load place details</div>`

var popupTmpl = template.Must(template.New("popup").Parse(`<div class="mapkit-popup">
<h3 class="mapkit-name">{{.Name}}</h3>
{{- if .ShowCategory}}
<span class="mapkit-category">{{.Category}}</span>
{{- end}}
<p class="mapkit-address">&#128205; {{.Address}}</p>
{{- if .ShowPhone}}
<p class="mapkit-phone">&#128222; <a href="{{.TelHref}}">{{.Phone}}</a></p>
{{- end}}
{{- if .Website}}
<p class="mapkit-website">&#127760; <a href="{{.Website}}" target="_blank" rel="noopener">{{.WebsiteDisplay}}</a></p>
{{- end}}
{{- if .ShowHours}}
<p class="mapkit-hours">&#128336; {{.Hours}}</p>
{{- end}}
</div>`))

type popupData struct {
	models.PlaceRecord
	ShowCategory   bool
	ShowPhone      bool
	ShowHours      bool
	TelHref        template.URL
	WebsiteDisplay string
}

// telHref builds the tel: link target, keeping only characters meaningful
// in a dial string so tag data cannot smuggle markup into the attribute.
func telHref(phone string) template.URL {
	var sb strings.Builder
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9', r == '+', r == '-', r == '(', r == ')', r == '.', r == ' ':
			sb.WriteRune(r)
		}
	}
	return template.URL("tel:" + sb.String())
}

// Popup renders the full popup fragment for a resolved place. Contact lines
// carrying the "Not available" sentinel are suppressed; the category badge
// is suppressed for the generic fallback category.
func Popup(rec models.PlaceRecord) string {
	data := popupData{
		PlaceRecord:    rec,
		ShowCategory:   rec.Category != models.FallbackCategory,
		ShowPhone:      rec.Phone != "" && rec.Phone != models.NotAvailable,
		ShowHours:      rec.Hours != "" && rec.Hours != models.NotAvailable,
		TelHref:        telHref(rec.Phone),
		WebsiteDisplay: DisplayURL(rec.Website),
	}

	var sb strings.Builder
	if err := popupTmpl.Execute(&sb, data); err != nil {
		return ErrorFragment
	}
	return sb.String()
}

// DisplayURL strips the protocol and a trailing slash for display. The link
// target keeps the original value.
func DisplayURL(raw string) string {
	s := strings.TrimPrefix(raw, "https://")
	s = strings.TrimPrefix(s, "http://")
	return strings.TrimSuffix(s, "/")
}
