package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

func TestCooldown(t *testing.T) {
	t.Run("blocks reset minus one frames", func(t *testing.T) {
		var cd cooldown
		cd.arm(4)
		assert.True(t, cd.blocked())
		assert.True(t, cd.blocked())
		assert.True(t, cd.blocked())
		assert.False(t, cd.blocked())
		assert.False(t, cd.blocked())
	})

	t.Run("zero never blocks", func(t *testing.T) {
		var cd cooldown
		cd.arm(0)
		assert.False(t, cd.blocked())
	})

	t.Run("clear releases immediately", func(t *testing.T) {
		var cd cooldown
		cd.arm(10)
		cd.clear()
		assert.False(t, cd.blocked())
	})
}

func TestEngine_AbsentHandsNeverFire(t *testing.T) {
	for _, strategy := range []Strategy{StrategyPinch, StrategyTap} {
		t.Run(string(strategy), func(t *testing.T) {
			e, clock := newTestEngine(t, func(c *Calibration) { c.ClickStrategy = strategy })

			for i := 0; i < 50; i++ {
				assert.Equal(t, ClickNone, e.DetectClick(nil))
				assert.False(t, e.DetectCopy(nil))
				assert.False(t, e.DetectPaste(nil))
				assert.False(t, e.DetectDesktopSwitchLeft(nil))
				assert.False(t, e.DetectDesktopSwitchRight(nil))
				assert.Equal(t, DirectionNone, e.DetectScroll(nil))
				assert.False(t, e.DetectDragStart(nil, nil))
				assert.False(t, e.DetectDragStart(openLeft(), nil))
				assert.False(t, e.DetectDragEnd(nil, openRight()))
				assert.Equal(t, Decision{}, e.Evaluate(detector.Frame{}))
				clock.Advance(frameDuration)
			}
		})
	}
}

func TestEngine_CooldownGatedDetectors(t *testing.T) {
	const reset = 20

	tests := []struct {
		name   string
		hand   *detector.HandLandmarks
		detect func(*Engine, *detector.HandLandmarks) bool
	}{
		{"copy", pinchLeft(detector.RingTip), (*Engine).DetectCopy},
		{"paste", pinchLeft(detector.PinkyTip), (*Engine).DetectPaste},
		{"desktop switch left", pinchRight(detector.RingTip), (*Engine).DetectDesktopSwitchLeft},
		{"desktop switch right", pinchRight(detector.PinkyTip), (*Engine).DetectDesktopSwitchRight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, func(c *Calibration) { c.CooldownFrames = reset })

			require.True(t, tt.detect(e, tt.hand), "first qualifying frame should fire")
			for i := 1; i < reset; i++ {
				assert.False(t, tt.detect(e, tt.hand), "frame %d should be inside the cooldown", i)
			}
			assert.True(t, tt.detect(e, tt.hand), "frame %d should fire again", reset)
		})
	}
}

func TestEngine_CooldownGatedDetectors_OpenHand(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	for i := 0; i < 5; i++ {
		assert.False(t, e.DetectCopy(openLeft()))
		assert.False(t, e.DetectPaste(openLeft()))
		assert.False(t, e.DetectDesktopSwitchLeft(openRight()))
		assert.False(t, e.DetectDesktopSwitchRight(openRight()))
	}
}

func TestEngine_DragLatch(t *testing.T) {
	e, _ := newTestEngine(t, func(c *Calibration) { c.CooldownFrames = 5 })
	left := openLeft()

	t.Run("end is ignored while idle", func(t *testing.T) {
		assert.False(t, e.DetectDragEnd(left, thumbOnLeftIndexRight()))
		assert.False(t, e.Dragging())
	})

	t.Run("start latches", func(t *testing.T) {
		require.True(t, e.DetectDragStart(left, touchingIndexRight()))
		assert.True(t, e.Dragging())
	})

	t.Run("start never fires twice", func(t *testing.T) {
		for i := 0; i < 30; i++ {
			assert.False(t, e.DetectDragStart(left, touchingIndexRight()), "frame %d", i)
		}
		assert.True(t, e.Dragging())
	})

	t.Run("end releases", func(t *testing.T) {
		assert.False(t, e.DetectDragEnd(left, apartRight()))
		require.True(t, e.DetectDragEnd(left, thumbOnLeftIndexRight()))
		assert.False(t, e.Dragging())
		assert.False(t, e.DetectDragEnd(left, thumbOnLeftIndexRight()))
	})

	t.Run("start fires again after release", func(t *testing.T) {
		assert.True(t, e.DetectDragStart(left, touchingIndexRight()))
	})
}

func TestEngine_Reset(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	require.True(t, e.DetectDragStart(openLeft(), touchingIndexRight()))
	require.True(t, e.DetectCopy(pinchLeft(detector.RingTip)))

	assert.True(t, e.Reset(), "reset should report the open drag")
	assert.False(t, e.Dragging())
	assert.False(t, e.Reset())
	assert.True(t, e.DetectCopy(pinchLeft(detector.RingTip)), "reset should clear cooldowns")
}

func TestEngine_SetCalibration(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	require.True(t, e.DetectDragStart(openLeft(), touchingIndexRight()))

	bad := DefaultCalibration()
	bad.CooldownFrames = -3
	assert.ErrorIs(t, e.SetCalibration(bad), ErrInvalidCalibration)
	assert.Equal(t, DefaultCalibration(), e.Calibration())

	tap := DefaultCalibration()
	tap.ClickStrategy = StrategyTap
	tap.CopyThreshold = 1
	require.NoError(t, e.SetCalibration(tap))

	assert.IsType(t, &TapClicker{}, e.click)
	assert.True(t, e.Dragging(), "drag latch should survive a calibration change")
	assert.False(t, e.DetectCopy(pinchLeft(detector.RingTip)), "new copy threshold should apply")
}

func TestEngine_Evaluate(t *testing.T) {
	t.Run("open right hand moves the cursor", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		right := openRight()

		d := e.Evaluate(detector.Frame{Right: right})

		tip := right.Points[detector.IndexTip]
		assert.True(t, d.Move)
		assert.Equal(t, geometry.Point{X: tip.X, Y: tip.Y}, d.Pointer)
		assert.Empty(t, d.Events())
	})

	t.Run("desktop switch suppresses movement", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)

		d := e.Evaluate(detector.Frame{Right: pinchRight(detector.RingTip)})
		assert.Equal(t, KindDesktopLeft, d.Right)
		assert.False(t, d.Move)

		d = e.Evaluate(detector.Frame{Right: pinchRight(detector.PinkyTip)})
		assert.Equal(t, KindDesktopRight, d.Right)
		assert.False(t, d.Move)

		// Held ring pinch inside its cooldown: nothing fires, the cursor moves.
		d = e.Evaluate(detector.Frame{Right: pinchRight(detector.RingTip)})
		assert.Equal(t, KindNone, d.Right)
		assert.True(t, d.Move)
	})

	t.Run("confirmed scroll suppresses movement", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		right := pinchRight(detector.MiddleDIP)

		assert.True(t, e.Evaluate(detector.Frame{Right: right}).Move)
		assert.True(t, e.Evaluate(detector.Frame{Right: right}).Move)

		d := e.Evaluate(detector.Frame{Right: right})
		assert.Equal(t, KindScrollUp, d.Right)
		assert.False(t, d.Move)

		d = e.Evaluate(detector.Frame{Right: right})
		assert.Equal(t, KindScrollUp, d.Right, "confirmed direction repeats every frame")

		d = e.Evaluate(detector.Frame{Right: openRight()})
		assert.Equal(t, KindNone, d.Right)
		assert.True(t, d.Move)
	})

	t.Run("scroll down", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		var d Decision
		for i := 0; i < 3; i++ {
			d = e.Evaluate(detector.Frame{Right: pinchRight(detector.MiddlePIP)})
		}
		assert.Equal(t, KindScrollDown, d.Right)
	})

	t.Run("drag overrides right hand and keeps the cursor moving", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)
		left := openLeft()

		d := e.Evaluate(detector.Frame{Left: left, Right: touchingIndexRight()})
		assert.Equal(t, KindDragStart, d.Drag)
		assert.True(t, d.Move)
		assert.Equal(t, []Kind{KindDragStart}, d.Events())

		d = e.Evaluate(detector.Frame{Left: left, Right: touchingIndexRight()})
		assert.Equal(t, KindNone, d.Drag)
		assert.True(t, d.Move)

		d = e.Evaluate(detector.Frame{Left: left, Right: thumbOnLeftIndexRight()})
		assert.Equal(t, KindDragEnd, d.Drag)
		assert.False(t, e.Dragging())
	})

	t.Run("left hand events", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)

		d := e.Evaluate(detector.Frame{Left: pinchLeft(detector.RingTip)})
		assert.Equal(t, KindCopy, d.Left)
		assert.False(t, d.Move, "no right hand, no cursor")

		d = e.Evaluate(detector.Frame{Left: pinchLeft(detector.PinkyTip)})
		assert.Equal(t, KindPaste, d.Left)
	})

	t.Run("left hand gestures compete in call order", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)

		// Thumb touching ring and pinky tips at once.
		hand := detector.PinchLandmarks(detector.HandLeft, detector.RingTip)
		hand.Points[detector.PinkyTip] = hand.Points[detector.RingTip]

		d := e.Evaluate(detector.Frame{Left: px(hand)})
		assert.Equal(t, KindCopy, d.Left)

		// Both cooldowns were consumed in the same pass.
		d = e.Evaluate(detector.Frame{Left: px(hand)})
		assert.Equal(t, KindNone, d.Left)
	})

	t.Run("left and right events are independent", func(t *testing.T) {
		e, _ := newTestEngine(t, nil)

		d := e.Evaluate(detector.Frame{
			Left:  pinchLeft(detector.RingTip),
			Right: pinchRight(detector.PinkyTip),
		})
		assert.Equal(t, []Kind{KindDesktopRight, KindCopy}, d.Events())
	})
}

func TestKind_Hand(t *testing.T) {
	assert.Equal(t, detector.HandLeft, KindCopy.Hand())
	assert.Equal(t, detector.HandRight, KindScrollDown.Hand())
	assert.Equal(t, "Both", KindDragEnd.Hand())
	assert.Equal(t, "", KindNone.Hand())
}
