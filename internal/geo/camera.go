package geo

import (
	"math"
	"strconv"
	"strings"
)

const (
	MinZoom = 1
	MaxZoom = 8
)

// Bounds is a projected bounding box.
type Bounds struct {
	X0, Y0, X1, Y1 float64
}

func emptyBounds() Bounds {
	return Bounds{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
}

func (b *Bounds) extend(p Point) {
	b.X0 = math.Min(b.X0, p.X)
	b.Y0 = math.Min(b.Y0, p.Y)
	b.X1 = math.Max(b.X1, p.X)
	b.Y1 = math.Max(b.Y1, p.Y)
}

func (b Bounds) Empty() bool {
	return b.X0 > b.X1 || b.Y0 > b.Y1
}

// Shape is a feature's projected rings, ready to draw.
type Shape struct {
	Rings  [][]Point
	Bounds Bounds
}

// ProjectFeature projects every polygon of f. Polygons outside the composite
// projection are dropped; ok is false when nothing remains.
func ProjectFeature(p *AlbersUSA, f Feature) (Shape, bool) {
	s := Shape{Bounds: emptyBounds()}
	for _, poly := range f.Geometry.Polygons {
		rings, ok := p.ProjectPolygon(poly)
		if !ok {
			continue
		}
		for _, ring := range rings {
			for _, pt := range ring {
				s.Bounds.extend(pt)
			}
		}
		s.Rings = append(s.Rings, rings...)
	}
	return s, len(s.Rings) > 0 && !s.Bounds.Empty()
}

// Path renders the shape as SVG path data.
func (s Shape) Path() string {
	var b strings.Builder
	for _, ring := range s.Rings {
		for i, pt := range ring {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(fmtCoord(pt.X))
			b.WriteByte(',')
			b.WriteString(fmtCoord(pt.Y))
		}
		if len(ring) > 0 {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Transform is a zoom transform: screen = k*p + (x, y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the full-extent camera.
var Identity = Transform{K: 1}

func (t Transform) Apply(p Point) Point {
	return Point{X: t.K*p.X + t.X, Y: t.K*p.Y + t.Y}
}

// SVG renders the transform as an SVG transform attribute value.
func (t Transform) SVG() string {
	return "translate(" + fmtCoord(t.X) + "," + fmtCoord(t.Y) + ") scale(" + strconv.FormatFloat(t.K, 'f', 4, 64) + ")"
}

// Fit frames b in a width x height viewport so the box fills 90% of the
// tighter dimension, with the zoom clamped to [MinZoom, MaxZoom].
func Fit(b Bounds, width, height float64) Transform {
	if b.Empty() || width <= 0 || height <= 0 {
		return Identity
	}
	dx, dy := b.X1-b.X0, b.Y1-b.Y0
	cx, cy := (b.X0+b.X1)/2, (b.Y0+b.Y1)/2
	fraction := math.Max(dx/width, dy/height)
	scale := float64(MaxZoom)
	if fraction > 0 {
		scale = math.Max(MinZoom, math.Min(MaxZoom, 0.9/fraction))
	}
	return Transform{K: scale, X: width/2 - scale*cx, Y: height/2 - scale*cy}
}
