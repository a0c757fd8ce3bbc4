// Package drilldown draws a hospital's infection history as a line graph, one
// line per infection category.
package drilldown

import (
	"errors"
	"io"
	"math"
	"sort"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"hai-map-go/internal/aggregator"
	"hai-map-go/internal/normalize"
	"hai-map-go/internal/types"
)

var (
	ErrUnknownHospital = errors.New("unknown hospital")
	ErrNoObservations  = errors.New("hospital has no dated observations")
)

const (
	DefaultWidth  = 800
	DefaultHeight = 400
)

type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Line is one category's scores summed per start date, oldest first.
type Line struct {
	Category string  `json:"category"`
	Points   []Point `json:"points"`
}

// Lines groups a hospital's records by normalized category. Records with an
// unparseable start date are left out. Lines come in first-seen category order.
func Lines(records []types.InfectionRecord, hospitalID string) ([]Line, error) {
	hospital := aggregator.Filter(records, aggregator.Criteria{HospitalID: hospitalID})
	if hospitalID == "" || len(hospital) == 0 {
		return nil, ErrUnknownHospital
	}

	var order []string
	sums := map[string]map[time.Time]float64{}
	for _, r := range hospital {
		d := aggregator.ParseDate(r.StartDate)
		if d.IsZero() {
			continue
		}
		cat := normalize.InfectionName(r.MeasureName)
		if _, ok := sums[cat]; !ok {
			sums[cat] = map[time.Time]float64{}
			order = append(order, cat)
		}
		sums[cat][d] += r.Score
	}

	out := make([]Line, 0, len(order))
	for _, cat := range order {
		line := Line{Category: cat}
		for d, v := range sums[cat] {
			line.Points = append(line.Points, Point{Date: d, Value: v})
		}
		sort.Slice(line.Points, func(i, j int) bool { return line.Points[i].Date.Before(line.Points[j].Date) })
		out = append(out, line)
	}
	return out, nil
}

// Render writes the lines as a PNG chart titled with the hospital id.
func Render(w io.Writer, hospitalID string, lines []Line, width, height int) error {
	if len(lines) == 0 {
		return ErrNoObservations
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	maxY := 0.0
	series := make([]chart.Series, 0, len(lines))
	for i, line := range lines {
		xs := make([]time.Time, 0, len(line.Points)+1)
		ys := make([]float64, 0, len(line.Points)+1)
		for _, p := range line.Points {
			xs = append(xs, p.Date)
			ys = append(ys, p.Value)
			maxY = math.Max(maxY, p.Value)
		}
		// a series needs two x values to span a range
		if len(xs) == 1 {
			xs = append(xs, xs[0].Add(24*time.Hour))
			ys = append(ys, ys[0])
		}
		color := chart.GetDefaultColor(i)
		series = append(series, chart.TimeSeries{
			Name:    line.Category,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}

	ch := chart.Chart{
		Title:      hospitalID,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:           "Start date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("1/2/06"),
		},
		YAxis: chart.YAxis{
			Name:  "Observed cases",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(1, maxY*1.1)},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// Graph is Lines followed by Render.
func Graph(w io.Writer, records []types.InfectionRecord, hospitalID string, width, height int) error {
	lines, err := Lines(records, hospitalID)
	if err != nil {
		return err
	}
	return Render(w, hospitalID, lines, width, height)
}
