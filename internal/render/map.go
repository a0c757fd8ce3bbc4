// Package render draws the choropleth, its hospital markers and the legend as
// a standalone SVG document.
package render

import (
	"fmt"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"

	"hai-map-go/internal/geo"
	"hai-map-go/internal/types"
)

const (
	markerRadius = 5.0
	legendWidth  = 300.0
	legendTicks  = 5
)

var (
	documentTmpl = fasttemplate.New(`<svg xmlns="http://www.w3.org/2000/svg" width="{{width}}" height="{{height}}" viewBox="0 0 {{width}} {{height}}">`+
		`<a href="{{reset_href}}"><rect class="background" width="{{width}}" height="{{height}}" fill="#fff"/></a>`+
		`<g class="states" transform="{{camera}}">{{states}}</g>`+
		`<g class="hospitals" transform="{{camera}}">{{markers}}</g>`+
		`{{legend}}</svg>`, "{{", "}}")

	stateTmpl = fasttemplate.New(`<a href="{{href}}"><path class="state" d="{{d}}" fill="{{fill}}" stroke="#333" stroke-width="0.5"><title>{{title}}</title></path></a>`, "{{", "}}")

	markerTmpl = fasttemplate.New(`<a href="{{href}}"><circle class="hospital" cx="{{cx}}" cy="{{cy}}" r="{{r}}" fill="red" fill-opacity="0.7"><title>{{title}}</title></circle></a>`, "{{", "}}")

	legendTmpl = fasttemplate.New(`<g class="legend" transform="translate({{x}},{{y}})">`+
		`<rect x="-10" y="-20" width="{{box_w}}" height="50" fill="#fff" fill-opacity="0.8"/>`+
		`<text x="0" y="-6" font-size="12">Infection Counts</text>`+
		`<defs><linearGradient id="legend-gradient" x1="0%" x2="100%" y1="0%" y2="0%">{{stops}}</linearGradient></defs>`+
		`<rect width="{{w}}" height="10" fill="url(#legend-gradient)"/>{{ticks}}</g>`, "{{", "}}")
)

// Links builds the hrefs the drawn shapes navigate to.
type Links struct {
	SelectState func(name string) string
	Reset       string
	Hospital    func(id string) string
}

// DefaultLinks targets the map and line-graph endpoints of the HTTP API.
func DefaultLinks() Links {
	return Links{
		SelectState: func(name string) string { return "/map.svg?select=" + url.QueryEscape(name) },
		Reset:       "/map.svg?reset=1",
		Hospital:    func(id string) string { return "/linegraph?hospital=" + url.QueryEscape(id) },
	}
}

// Scene is everything a map draw needs.
type Scene struct {
	Width, Height float64
	Projection    *geo.AlbersUSA
	Features      []geo.Feature
	Totals        types.StateAggregate
	SelectedState string
	InfectionType string
	Hospitals     []types.HospitalAggregate
	Camera        geo.Transform
	Scale         Scale
	Links         Links
}

// Marker is a hospital aggregate placed on the projected plane.
type Marker struct {
	types.HospitalAggregate
	At geo.Point
}

// Markers places every hospital with parseable, projectable coordinates.
func Markers(p geo.Projection, hospitals []types.HospitalAggregate) []Marker {
	out := make([]Marker, 0, len(hospitals))
	for _, h := range hospitals {
		lon, err := strconv.ParseFloat(strings.TrimSpace(h.Lon), 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(h.Lat), 64)
		if err != nil {
			continue
		}
		pt, ok := p.Project(lon, lat)
		if !ok {
			continue
		}
		out = append(out, Marker{HospitalAggregate: h, At: pt})
	}
	return out
}

// FormatCount renders a score the way tooltips show it.
func FormatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// StateTooltip is the hover text of a state shape.
func StateTooltip(name string, totals types.StateAggregate) string {
	count := types.NoData
	if v, ok := totals[name]; ok && v != 0 {
		count = FormatCount(v)
	}
	return name + "\nInfections: " + count
}

// HospitalTooltip is the hover text of a hospital marker.
func HospitalTooltip(h types.HospitalAggregate, infectionType string) string {
	var b strings.Builder
	b.WriteString(h.HospitalID)
	if infectionType == "" || infectionType == types.All {
		b.WriteString("\nAll Infections: " + FormatCount(h.TotalScore))
	} else {
		count := types.NoData
		if h.TotalScore != 0 {
			count = FormatCount(h.TotalScore)
		}
		b.WriteString("\nInfection Type: " + infectionType)
		b.WriteString("\nCount: " + count)
	}
	b.WriteString("\nLatest Benchmark: " + orNoData(h.Benchmark))
	b.WriteString("\nMost Frequent Benchmark: " + orNoData(h.MostFrequentBenchmark))
	return b.String()
}

func orNoData(s string) string {
	if s == "" {
		return types.NoData
	}
	return s
}

// StateFill picks a state's color. With a selection, every other state is dimmed.
func StateFill(name string, s Scene) string {
	if s.SelectedState != "" && name != s.SelectedState {
		return DimmedColor
	}
	v, ok := s.Totals[name]
	return s.Scale.Fill(v, ok)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Map writes the scene as an SVG document.
func Map(w io.Writer, s Scene) error {
	if s.Projection == nil {
		return fmt.Errorf("render: scene has no projection")
	}
	if s.Camera.K == 0 {
		s.Camera = geo.Identity
	}
	if s.Links.SelectState == nil || s.Links.Hospital == nil {
		s.Links = DefaultLinks()
	}

	var states strings.Builder
	for _, f := range s.Features {
		shape, ok := geo.ProjectFeature(s.Projection, f)
		if !ok {
			continue
		}
		name := f.Name()
		states.WriteString(stateTmpl.ExecuteString(map[string]any{
			"href":  html.EscapeString(s.Links.SelectState(name)),
			"d":     shape.Path(),
			"fill":  StateFill(name, s),
			"title": html.EscapeString(StateTooltip(name, s.Totals)),
		}))
	}

	var markers strings.Builder
	r := markerRadius / s.Camera.K
	for _, m := range Markers(s.Projection, s.Hospitals) {
		markers.WriteString(markerTmpl.ExecuteString(map[string]any{
			"href":  html.EscapeString(s.Links.Hospital(m.HospitalID)),
			"cx":    num(m.At.X),
			"cy":    num(m.At.Y),
			"r":     strconv.FormatFloat(r, 'f', 4, 64),
			"title": html.EscapeString(HospitalTooltip(m.HospitalAggregate, s.InfectionType)),
		}))
	}

	_, err := documentTmpl.Execute(w, map[string]any{
		"width":      num(s.Width),
		"height":     num(s.Height),
		"reset_href": html.EscapeString(s.Links.Reset),
		"camera":     s.Camera.SVG(),
		"states":     states.String(),
		"markers":    markers.String(),
		"legend":     Legend(s.Scale, s.Width, s.Height),
	})
	return err
}

// Legend draws the gradient bar with its tick labels in the lower-right corner.
func Legend(scale Scale, width, height float64) string {
	var stops strings.Builder
	const n = 8
	for i := 0; i <= n; i++ {
		t := float64(i) / n
		fmt.Fprintf(&stops, `<stop offset="%d%%" stop-color="%s"/>`, int(t*100), scale.Color(scale.Min+t*(scale.Max-scale.Min)))
	}

	var ticks strings.Builder
	span := scale.Max - scale.Min
	for _, v := range scale.Ticks(legendTicks) {
		x := 0.0
		if span > 0 {
			x = (v - scale.Min) / span * legendWidth
		}
		fmt.Fprintf(&ticks, `<line x1="%s" x2="%s" y1="10" y2="14" stroke="#333"/><text x="%s" y="26" font-size="10" text-anchor="middle">%s</text>`,
			num(x), num(x), num(x), FormatCount(v))
	}

	return legendTmpl.ExecuteString(map[string]any{
		"x":     num(width - legendWidth - 20),
		"y":     num(height - 40),
		"box_w": num(legendWidth + 20),
		"w":     num(legendWidth),
		"stops": stops.String(),
		"ticks": ticks.String(),
	})
}
