// Package geometry measures distances between hand landmarks.
//
// Every function is total: an absent hand or an index outside the landmark
// scheme yields +Inf (or no point), which never falls under a finite threshold.
package geometry

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Point is a position in frame pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the 2-D Euclidean distance between landmarks i and j of one hand.
func Distance(hand *detector.HandLandmarks, i, j int) float64 {
	a, ok := hand.Point(i)
	if !ok {
		return math.Inf(1)
	}
	b, ok := hand.Point(j)
	if !ok {
		return math.Inf(1)
	}
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// CrossHandDistance returns the 2-D distance between landmark i of the left
// hand and landmark j of the right hand.
func CrossHandDistance(left, right *detector.HandLandmarks, i, j int) float64 {
	a, ok := left.Point(i)
	if !ok {
		return math.Inf(1)
	}
	b, ok := right.Point(j)
	if !ok {
		return math.Inf(1)
	}
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Fingertip returns the X/Y position of landmark index.
func Fingertip(hand *detector.HandLandmarks, index int) (Point, bool) {
	p, ok := hand.Point(index)
	if !ok {
		return Point{}, false
	}
	return Point{X: p.X, Y: p.Y}, true
}
