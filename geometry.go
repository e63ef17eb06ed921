package main

import (
	"math"
	"strconv"
	"strings"
)

// Point is a position in diagram space, independent of pan and zoom.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

func DistanceBetween(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// DistanceToSegment returns the distance from p to the closest point of the
// segment [start, end]. The projection is clamped so it never extrapolates
// past either endpoint.
func DistanceToSegment(p, start, end Point) float64 {
	dx := end.X - start.X
	dy := end.Y - start.Y

	if dx == 0 && dy == 0 {
		return DistanceBetween(p, start)
	}

	t := ((p.X-start.X)*dx + (p.Y-start.Y)*dy) / (dx*dx + dy*dy)
	t = math.Max(0, math.Min(1, t))

	projection := Point{X: start.X + t*dx, Y: start.Y + t*dy}
	return DistanceBetween(p, projection)
}

func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// BuildPath renders points as "M x,y L x,y ..." path data.
func BuildPath(points []Point) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	for i, p := range points {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(formatCoord(p.X))
		b.WriteByte(',')
		b.WriteString(formatCoord(p.Y))
	}
	return b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NearestSegment returns the index of the segment of path closest to p.
// Ties go to the lowest index. Paths with fewer than two points have no
// segments and yield -1.
func NearestSegment(path []Point, p Point) int {
	best := -1
	bestDist := math.Inf(1)
	for i := 0; i < len(path)-1; i++ {
		d := DistanceToSegment(p, path[i], path[i+1])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func sanitizePoints(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.IsFinite() {
			out = append(out, p)
		}
	}
	return out
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return []Point{}
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}
