package model

import "math"

// Point is a position in the park, in distance units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to q.
func (p Point) DistanceTo(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// StepToward moves p up to maxDist toward target along the straight line.
// Returns the new position and whether the target was reached.
func (p Point) StepToward(target Point, maxDist float64) (Point, bool) {
	dist := p.DistanceTo(target)
	if dist <= maxDist {
		return target, true
	}
	ratio := maxDist / dist
	return Point{
		X: p.X + (target.X-p.X)*ratio,
		Y: p.Y + (target.Y-p.Y)*ratio,
	}, false
}

// Park is the closed rectangle [0, Width] x [0, Height].
type Park struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp constrains p to the park bounds.
func (pk Park) Clamp(p Point) Point {
	return Point{
		X: math.Max(0, math.Min(pk.Width, p.X)),
		Y: math.Max(0, math.Min(pk.Height, p.Y)),
	}
}

// Contains reports whether p lies within the park (boundary inclusive).
func (pk Park) Contains(p Point) bool {
	return p.X >= 0 && p.X <= pk.Width && p.Y >= 0 && p.Y <= pk.Height
}

// ZoneNames lists the four quadrant zones in a fixed iteration order.
var ZoneNames = []string{"zone1", "zone2", "zone3", "zone4"}

// ZoneOf returns the quadrant zone containing p:
// zone1 is the lower-left quadrant, zone2 lower-right,
// zone3 upper-left, zone4 upper-right.
func (pk Park) ZoneOf(p Point) string {
	right := p.X > pk.Width/2
	upper := p.Y > pk.Height/2
	switch {
	case !right && !upper:
		return "zone1"
	case right && !upper:
		return "zone2"
	case !right && upper:
		return "zone3"
	default:
		return "zone4"
	}
}

// NearestStation returns the station closest to p.
// Panics if stations is empty; station lists are validated at setup.
func NearestStation(stations []Point, p Point) Point {
	best := stations[0]
	bestDist := p.DistanceTo(best)
	for _, st := range stations[1:] {
		if d := p.DistanceTo(st); d < bestDist {
			best = st
			bestDist = d
		}
	}
	return best
}

// IsStation reports whether p coincides with one of the stations.
// Robots snap exactly onto station coordinates when they arrive, so
// exact comparison is sufficient.
func IsStation(stations []Point, p Point) bool {
	for _, st := range stations {
		if p == st {
			return true
		}
	}
	return false
}
