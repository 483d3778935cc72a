// Package detector provides the hand landmark contract and hand detection implementations.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels assigned by the hand classifier.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// ErrLandmarkCount is returned when a hand does not carry exactly NumLandmarks points.
var ErrLandmarkCount = errors.New("unexpected landmark count")

// Point3D is a single landmark position. X and Y are in frame pixels once
// denormalized, Z is the relative depth reported by the tracker.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
// A nil *HandLandmarks stands for an absent hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// FromPoints validates a raw landmark list at the ingestion boundary and
// builds a HandLandmarks from it.
func FromPoints(points []Point3D, handedness string, score float64) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrLandmarkCount, len(points), NumLandmarks)
	}

	h := &HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(h.Points[:], points)
	return h, nil
}

// Point returns the landmark at index i. It reports false for a nil hand or
// an index outside the landmark scheme.
func (h *HandLandmarks) Point(i int) (Point3D, bool) {
	if h == nil || i < 0 || i >= NumLandmarks {
		return Point3D{}, false
	}
	return h.Points[i], true
}

// Denormalize scales normalized [0,1] X/Y coordinates to frame pixels.
// Z is relative depth and is left untouched.
func (h *HandLandmarks) Denormalize(width, height int) *HandLandmarks {
	if h == nil {
		return nil
	}

	out := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	w, ht := float64(width), float64(height)
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: p.X * w, Y: p.Y * ht, Z: p.Z}
	}
	return out
}

// Frame is the pair of hands seen in one captured frame. Either side may be nil.
type Frame struct {
	Left  *HandLandmarks
	Right *HandLandmarks
}

// SplitHands sorts detected hands into a Frame by their handedness label.
// When the classifier reports the same label twice the later hand wins.
// Hands with an unknown label are dropped.
func SplitHands(hands []HandLandmarks) Frame {
	var f Frame
	for i := range hands {
		h := hands[i]
		switch h.Handedness {
		case HandLeft:
			f.Left = &h
		case HandRight:
			f.Right = &h
		}
	}
	return f
}

// Denormalize returns a copy of the frame with both hands scaled to pixels.
func (f Frame) Denormalize(width, height int) Frame {
	return Frame{
		Left:  f.Left.Denormalize(width, height),
		Right: f.Right.Denormalize(width, height),
	}
}

// Empty reports whether neither hand is present.
func (f Frame) Empty() bool {
	return f.Left == nil && f.Right == nil
}
