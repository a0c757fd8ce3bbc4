package render

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	NoDataColor = "#eee"
	DimmedColor = "#ccc"
)

// blues is the nine-class sequential Blues scheme.
var blues = mustHexes("#f7fbff", "#deebf7", "#c6dbef", "#9ecae1", "#6baed6", "#4292c6", "#2171b5", "#08519c", "#08306b")

func mustHexes(hexes ...string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// basis evaluates a uniform cubic B-spline segment.
func basis(t, v0, v1, v2, v3 float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return ((1-3*t+3*t2-t3)*v0 + (4-6*t2+3*t3)*v1 + (1+3*t+3*t2-3*t3)*v2 + t3*v3) / 6
}

func splineChannel(values []float64, t float64) float64 {
	n := len(values) - 1
	var i int
	switch {
	case t <= 0:
		t, i = 0, 0
	case t >= 1:
		t, i = 1, n-1
	default:
		i = int(math.Floor(t * float64(n)))
	}
	v1, v2 := values[i], values[i+1]
	v0 := 2*v1 - v2
	if i > 0 {
		v0 = values[i-1]
	}
	v3 := 2*v2 - v1
	if i < n-1 {
		v3 = values[i+2]
	}
	return basis((t-float64(i)/float64(n))*float64(n), v0, v1, v2, v3)
}

// interpolate walks the scheme with an RGB B-spline, t clamped to [0, 1].
func interpolate(scheme []colorful.Color, t float64) colorful.Color {
	r := make([]float64, len(scheme))
	g := make([]float64, len(scheme))
	b := make([]float64, len(scheme))
	for i, c := range scheme {
		r[i], g[i], b[i] = c.R, c.G, c.B
	}
	return colorful.Color{R: splineChannel(r, t), G: splineChannel(g, t), B: splineChannel(b, t)}.Clamped()
}

// Scale is a sequential color scale over a fixed domain.
type Scale struct {
	Min, Max float64
}

func (s Scale) Color(v float64) string {
	t := 0.0
	if s.Max != s.Min {
		t = (v - s.Min) / (s.Max - s.Min)
	}
	return interpolate(blues, t).Hex()
}

// Fill colors an aggregate. Zero and missing aggregates get the neutral
// no-data tone, so they stay distinct from the low end of the ramp.
func (s Scale) Fill(v float64, ok bool) string {
	if !ok || v == 0 || math.IsNaN(v) {
		return NoDataColor
	}
	return s.Color(v)
}

// Ticks returns about count round values inside the domain.
func (s Scale) Ticks(count int) []float64 {
	if count <= 0 || s.Max <= s.Min {
		return nil
	}
	step := niceStep((s.Max - s.Min) / float64(count))
	var out []float64
	for v := math.Ceil(s.Min/step) * step; v <= s.Max+step*1e-9; v += step {
		out = append(out, v)
	}
	return out
}

func niceStep(raw float64) float64 {
	power := math.Pow(10, math.Floor(math.Log10(raw)))
	switch e := raw / power; {
	case e >= math.Sqrt(50):
		return 10 * power
	case e >= math.Sqrt(10):
		return 5 * power
	case e >= math.Sqrt(2):
		return 2 * power
	default:
		return power
	}
}
