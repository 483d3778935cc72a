package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

const (
	frameWidth    = 640
	frameHeight   = 480
	frameDuration = 33 * time.Millisecond
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// px converts a normalized fixture hand to frame pixels.
func px(h detector.HandLandmarks) *detector.HandLandmarks {
	return h.Denormalize(frameWidth, frameHeight)
}

func openLeft() *detector.HandLandmarks  { return px(detector.OpenHandLandmarks(detector.HandLeft)) }
func openRight() *detector.HandLandmarks { return px(detector.OpenHandLandmarks(detector.HandRight)) }

func pinchLeft(target int) *detector.HandLandmarks {
	return px(detector.PinchLandmarks(detector.HandLeft, target))
}

func pinchRight(target int) *detector.HandLandmarks {
	return px(detector.PinchLandmarks(detector.HandRight, target))
}

// apartRight is a right hand far from every left-hand landmark.
func apartRight() *detector.HandLandmarks {
	return px(detector.Translate(detector.OpenHandLandmarks(detector.HandRight), 0.3, 0))
}

// touchingIndexRight puts the right index tip on the left index tip.
func touchingIndexRight() *detector.HandLandmarks {
	return openRight()
}

// thumbOnLeftIndexRight puts the right thumb tip on the left index tip.
func thumbOnLeftIndexRight() *detector.HandLandmarks {
	open := detector.OpenHandLandmarks(detector.HandRight)
	idx, thumb := open.Points[detector.IndexTip], open.Points[detector.ThumbTip]
	return px(detector.Translate(open, idx.X-thumb.X, idx.Y-thumb.Y))
}

func newTestEngine(t *testing.T, mutate func(*Calibration)) (*Engine, *fakeClock) {
	t.Helper()

	cal := DefaultCalibration()
	if mutate != nil {
		mutate(&cal)
	}
	clock := newFakeClock()
	e, err := NewEngine(cal, WithClock(clock.Now))
	require.NoError(t, err)
	return e, clock
}
