package gesture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/mudra/internal/detector"
)

// feed runs a hand through the detector for n frames and returns the last result.
func feed(d ClickDetector, clock *fakeClock, hand *detector.HandLandmarks, n int) ClickKind {
	var got ClickKind
	for i := 0; i < n; i++ {
		got = d.Detect(hand)
		clock.Advance(frameDuration)
	}
	return got
}

func TestPinchClassifier(t *testing.T) {
	pinched := pinchLeft(detector.IndexTip)

	newClassifier := func() (*PinchClassifier, *fakeClock) {
		cal := DefaultCalibration()
		clock := newFakeClock()
		return NewPinchClassifier(&cal, clock.Now), clock
	}

	t.Run("short pinch is a single click", func(t *testing.T) {
		p, clock := newClassifier()

		assert.Equal(t, ClickNone, feed(p, clock, pinched, 3))
		clock.Advance(100 * time.Millisecond)
		assert.Equal(t, ClickSingle, p.Detect(openLeft()))
	})

	t.Run("long pinch is a double click", func(t *testing.T) {
		p, clock := newClassifier()

		feed(p, clock, pinched, 3)
		clock.Advance(2500 * time.Millisecond)
		assert.Equal(t, ClickNone, p.Detect(pinched))
		assert.Equal(t, ClickDouble, p.Detect(openLeft()))
	})

	t.Run("release before debounce fires nothing", func(t *testing.T) {
		p, clock := newClassifier()

		feed(p, clock, pinched, 2)
		assert.Equal(t, ClickNone, p.Detect(openLeft()))

		// The counter restarted, so two more frames are still not enough.
		feed(p, clock, pinched, 2)
		assert.Equal(t, ClickNone, p.Detect(openLeft()))
	})

	t.Run("absent hand cancels an engaged pinch", func(t *testing.T) {
		p, clock := newClassifier()

		feed(p, clock, pinched, 5)
		assert.Equal(t, ClickNone, p.Detect(nil))
		assert.Equal(t, ClickNone, p.Detect(openLeft()))
	})

	t.Run("cooldown after a click", func(t *testing.T) {
		p, clock := newClassifier()

		feed(p, clock, pinched, 3)
		assert.Equal(t, ClickSingle, p.Detect(openLeft()))

		// A full pinch cycle inside the 20 frame cooldown is swallowed.
		feed(p, clock, pinched, 3)
		assert.Equal(t, ClickNone, p.Detect(openLeft()))

		feed(p, clock, openLeft(), 20)
		feed(p, clock, pinched, 3)
		assert.Equal(t, ClickSingle, p.Detect(openLeft()))
	})

	t.Run("reset drops the pending pinch", func(t *testing.T) {
		p, clock := newClassifier()

		feed(p, clock, pinched, 3)
		p.Reset()
		assert.Equal(t, ClickNone, p.Detect(openLeft()))
	})
}

func TestTapClicker(t *testing.T) {
	pinched := pinchLeft(detector.IndexTip)

	newTap := func() (*TapClicker, *fakeClock) {
		cal := DefaultCalibration()
		cal.ClickStrategy = StrategyTap
		clock := newFakeClock()
		return NewTapClicker(&cal, clock.Now), clock
	}

	t.Run("quick tap clicks", func(t *testing.T) {
		c, clock := newTap()

		assert.Equal(t, ClickNone, feed(c, clock, pinched, 2))
		assert.Equal(t, ClickSingle, c.Detect(openLeft()))
	})

	t.Run("held pinch is ignored", func(t *testing.T) {
		c, clock := newTap()

		c.Detect(pinched)
		clock.Advance(600 * time.Millisecond)
		assert.Equal(t, ClickNone, c.Detect(pinched))
		assert.Equal(t, ClickNone, c.Detect(openLeft()))
	})

	t.Run("absent hand cancels the tap", func(t *testing.T) {
		c, clock := newTap()

		feed(c, clock, pinched, 2)
		assert.Equal(t, ClickNone, c.Detect(nil))
		assert.Equal(t, ClickNone, c.Detect(openLeft()))
	})

	t.Run("single click cooldown", func(t *testing.T) {
		c, clock := newTap()

		feed(c, clock, pinched, 1)
		assert.Equal(t, ClickSingle, c.Detect(openLeft()))

		feed(c, clock, pinched, 1)
		assert.Equal(t, ClickNone, c.Detect(openLeft()))
	})

	t.Run("thumb on middle tip double clicks once per cooldown", func(t *testing.T) {
		c, clock := newTap()
		middle := pinchLeft(detector.MiddleTip)

		assert.Equal(t, ClickDouble, c.Detect(middle))
		assert.Equal(t, ClickNone, feed(c, clock, middle, 19))
		assert.Equal(t, ClickDouble, c.Detect(middle))
	})
}

func TestEngine_ClickStrategies(t *testing.T) {
	t.Run("pinch", func(t *testing.T) {
		e, clock := newTestEngine(t, nil)

		for i := 0; i < 3; i++ {
			assert.Equal(t, KindNone, e.Evaluate(detector.Frame{Left: pinchLeft(detector.IndexTip)}).Left)
			clock.Advance(frameDuration)
		}
		assert.Equal(t, KindClick, e.Evaluate(detector.Frame{Left: openLeft()}).Left)
	})

	t.Run("tap", func(t *testing.T) {
		e, _ := newTestEngine(t, func(c *Calibration) { c.ClickStrategy = StrategyTap })

		assert.Equal(t, KindDoubleClick, e.Evaluate(detector.Frame{Left: pinchLeft(detector.MiddleTip)}).Left)
	})
}
