package geo

import "math"

const epsilon = 1e-6

// Point is a projected screen coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projection maps geographic coordinates to the screen. ok is false when the
// position falls outside the projectable area.
type Projection interface {
	Project(lon, lat float64) (p Point, ok bool)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// conic is an Albers equal-area conic projection with a longitudinal rotation,
// a scale, a translate and a center, composed the way d3-geo composes them.
type conic struct {
	n, c, r0  float64
	rotate    float64
	centerLon float64
	centerLat float64
	scale     float64
	dx, dy    float64
}

func newConic(parallel0, parallel1, rotate, centerLon, centerLat float64) *conic {
	sy0 := math.Sin(radians(parallel0))
	n := (sy0 + math.Sin(radians(parallel1))) / 2
	c := 1 + sy0*(2*n-sy0)
	return &conic{
		n:         n,
		c:         c,
		r0:        math.Sqrt(c) / n,
		rotate:    radians(rotate),
		centerLon: radians(centerLon),
		centerLat: radians(centerLat),
	}
}

func (p *conic) raw(lambda, phi float64) (float64, float64) {
	r := math.Sqrt(p.c-2*p.n*math.Sin(phi)) / p.n
	lambda *= p.n
	return r * math.Sin(lambda), p.r0 - r*math.Cos(lambda)
}

// setTransform fixes scale and translate and recomputes the center offset.
func (p *conic) setTransform(scale, tx, ty float64) {
	p.scale = scale
	cx, cy := p.raw(p.centerLon, p.centerLat)
	p.dx = tx - scale*cx
	p.dy = ty + scale*cy
}

func (p *conic) point(lon, lat float64) Point {
	lambda := radians(lon) + p.rotate
	switch {
	case lambda > math.Pi:
		lambda -= 2 * math.Pi
	case lambda < -math.Pi:
		lambda += 2 * math.Pi
	}
	x, y := p.raw(lambda, radians(lat))
	return Point{X: p.dx + p.scale*x, Y: p.dy - p.scale*y}
}

type inset struct {
	proj   *conic
	x0, y0 float64
	x1, y1 float64
}

func (in inset) contains(pt Point) bool {
	return pt.X >= in.x0 && pt.X <= in.x1 && pt.Y >= in.y0 && pt.Y <= in.y1
}

// AlbersUSA is the composite U.S. projection: the lower 48 on a conic with
// Alaska and Hawaii drawn as scaled insets below it.
type AlbersUSA struct {
	parts [3]inset
}

// NewAlbersUSA builds the composite projection for a scale and translate.
// d3's defaults are scale 1070 and translate (480, 250).
func NewAlbersUSA(scale, tx, ty float64) *AlbersUSA {
	lower48 := newConic(29.5, 45.5, 96, -0.6, 38.7)
	alaska := newConic(55, 65, 154, -2, 58.5)
	hawaii := newConic(8, 18, 157, -3, 19.9)

	k := scale
	lower48.setTransform(k, tx, ty)
	alaska.setTransform(k*0.35, tx-0.307*k, ty+0.201*k)
	hawaii.setTransform(k, tx-0.205*k, ty+0.212*k)

	return &AlbersUSA{parts: [3]inset{
		{proj: lower48, x0: tx - 0.455*k, y0: ty - 0.238*k, x1: tx + 0.455*k, y1: ty + 0.238*k},
		{proj: alaska, x0: tx - 0.425*k + epsilon, y0: ty + 0.120*k + epsilon, x1: tx - 0.214*k - epsilon, y1: ty + 0.234*k - epsilon},
		{proj: hawaii, x0: tx - 0.214*k + epsilon, y0: ty + 0.166*k + epsilon, x1: tx - 0.115*k - epsilon, y1: ty + 0.234*k - epsilon},
	}}
}

// Project tries the lower 48, then Alaska, then Hawaii, and returns the first
// result that lands inside that part's extent.
func (a *AlbersUSA) Project(lon, lat float64) (Point, bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return Point{}, false
	}
	for _, part := range a.parts {
		pt := part.proj.point(lon, lat)
		if part.contains(pt) {
			return pt, true
		}
	}
	return Point{}, false
}

// ProjectPolygon projects every ring of a polygon with the part chosen by the
// exterior ring's mean position, so a polygon is never split across insets.
// ok is false when that position is outside every part.
func (a *AlbersUSA) ProjectPolygon(poly Polygon) ([][]Point, bool) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil, false
	}
	var sumLon, sumLat float64
	for _, pos := range poly[0] {
		sumLon += pos[0]
		sumLat += pos[1]
	}
	n := float64(len(poly[0]))
	var part *inset
	for i := range a.parts {
		if a.parts[i].contains(a.parts[i].proj.point(sumLon/n, sumLat/n)) {
			part = &a.parts[i]
			break
		}
	}
	if part == nil {
		return nil, false
	}
	rings := make([][]Point, 0, len(poly))
	for _, ring := range poly {
		pts := make([]Point, len(ring))
		for i, pos := range ring {
			pts[i] = part.proj.point(pos[0], pos[1])
		}
		rings = append(rings, pts)
	}
	return rings, true
}
