package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

// Engine holds the per-hand and cross-hand gesture state machines.
//
// Each Detect method is meant to be called once per frame, with a nil hand
// when that hand is absent. Evaluate runs all of them in priority order.
type Engine struct {
	cal Calibration
	now Clock

	click ClickDetector

	copyCD         cooldown
	pasteCD        cooldown
	desktopLeftCD  cooldown
	desktopRightCD cooldown

	scroll scrollVoter

	dragging    bool
	dragStartCD cooldown
	dragEndCD   cooldown
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now for hold-duration measurement.
func WithClock(now Clock) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine validates cal and returns an idle engine.
func NewEngine(cal Calibration, opts ...Option) (*Engine, error) {
	if err := cal.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cal: cal,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.click = e.newClickDetector()

	return e, nil
}

func (e *Engine) newClickDetector() ClickDetector {
	if e.cal.ClickStrategy == StrategyTap {
		return NewTapClicker(&e.cal, e.now)
	}
	return NewPinchClassifier(&e.cal, e.now)
}

// Calibration returns the thresholds in use.
func (e *Engine) Calibration() Calibration {
	return e.cal
}

// SetCalibration swaps thresholds between frames. Running cooldowns, the
// scroll buffer and the drag latch carry over; changing the click strategy
// starts the new click detector from scratch.
func (e *Engine) SetCalibration(cal Calibration) error {
	if err := cal.Validate(); err != nil {
		return err
	}

	strategyChanged := cal.ClickStrategy != e.cal.ClickStrategy
	e.cal = cal
	if strategyChanged {
		e.click = e.newClickDetector()
	}
	return nil
}

// Reset clears all temporal state. It reports whether a drag was active,
// in which case the caller still owes a mouse-up.
func (e *Engine) Reset() bool {
	wasDragging := e.dragging

	e.click.Reset()
	e.copyCD.clear()
	e.pasteCD.clear()
	e.desktopLeftCD.clear()
	e.desktopRightCD.clear()
	e.scroll.reset()
	e.dragging = false
	e.dragStartCD.clear()
	e.dragEndCD.clear()

	return wasDragging
}

// Dragging reports whether a mouse-down has been issued without its mouse-up.
func (e *Engine) Dragging() bool {
	return e.dragging
}

// DetectClick runs the configured click strategy on the left hand.
func (e *Engine) DetectClick(left *detector.HandLandmarks) ClickKind {
	return e.click.Detect(left)
}

// DetectCopy fires on a left thumb-ring pinch.
func (e *Engine) DetectCopy(left *detector.HandLandmarks) bool {
	return e.pinchOnce(&e.copyCD, left, detector.RingTip, e.cal.CopyThreshold)
}

// DetectPaste fires on a left thumb-pinky pinch.
func (e *Engine) DetectPaste(left *detector.HandLandmarks) bool {
	return e.pinchOnce(&e.pasteCD, left, detector.PinkyTip, e.cal.PasteThreshold)
}

// DetectDesktopSwitchLeft fires on a right thumb-ring pinch.
func (e *Engine) DetectDesktopSwitchLeft(right *detector.HandLandmarks) bool {
	return e.pinchOnce(&e.desktopLeftCD, right, detector.RingTip, e.cal.DesktopSwitchThreshold)
}

// DetectDesktopSwitchRight fires on a right thumb-pinky pinch.
func (e *Engine) DetectDesktopSwitchRight(right *detector.HandLandmarks) bool {
	return e.pinchOnce(&e.desktopRightCD, right, detector.PinkyTip, e.cal.DesktopSwitchThreshold)
}

// pinchOnce is the shared cooldown-gated single-shot detector.
func (e *Engine) pinchOnce(cd *cooldown, hand *detector.HandLandmarks, finger int, threshold float64) bool {
	if cd.blocked() {
		return false
	}
	if geometry.Distance(hand, detector.ThumbTip, finger) < threshold {
		cd.arm(e.cal.CooldownFrames)
		return true
	}
	return false
}

// DetectScroll samples the right thumb against the middle finger joints and
// returns the vote-confirmed direction. The thumb on the distal joint means
// up, on the proximal joint down; up is checked first.
func (e *Engine) DetectScroll(right *detector.HandLandmarks) Direction {
	sample := DirectionNone
	switch {
	case geometry.Distance(right, detector.ThumbTip, detector.MiddleDIP) < e.cal.ScrollUpThreshold:
		sample = DirectionUp
	case geometry.Distance(right, detector.ThumbTip, detector.MiddlePIP) < e.cal.ScrollDownThreshold:
		sample = DirectionDown
	}
	return e.scroll.push(sample, e.cal.ScrollBufferSize, e.cal.ScrollVotes)
}

// DetectDragStart latches dragging when both index fingertips meet.
// It never fires while a drag is active.
func (e *Engine) DetectDragStart(left, right *detector.HandLandmarks) bool {
	if e.dragStartCD.blocked() {
		return false
	}
	if e.dragging {
		return false
	}
	if geometry.CrossHandDistance(left, right, detector.IndexTip, detector.IndexTip) < e.cal.DragStartThreshold {
		e.dragStartCD.arm(e.cal.CooldownFrames)
		e.dragging = true
		return true
	}
	return false
}

// DetectDragEnd releases the drag latch when the left index fingertip meets
// the right thumb tip. It never fires while idle.
func (e *Engine) DetectDragEnd(left, right *detector.HandLandmarks) bool {
	if e.dragEndCD.blocked() {
		return false
	}
	if !e.dragging {
		return false
	}
	if geometry.CrossHandDistance(left, right, detector.IndexTip, detector.ThumbTip) < e.cal.DragEndThreshold {
		e.dragEndCD.arm(e.cal.CooldownFrames)
		e.dragging = false
		return true
	}
	return false
}

// Evaluate runs one detection pass over a frame and returns a single
// prioritized decision. Every detector is consulted exactly once:
//
//  1. drag: start while idle, end while dragging
//  2. right hand: desktop switch left, desktop switch right, scroll
//  3. cursor: the right index fingertip, unless a desktop switch or scroll fired
//  4. left hand: click, copy, paste; the first to fire claims the frame
//
// A drag transition overrides the right-hand interpretation of that frame.
func (e *Engine) Evaluate(f detector.Frame) Decision {
	var d Decision

	if e.dragging {
		if e.DetectDragEnd(f.Left, f.Right) {
			d.Drag = KindDragEnd
		}
	} else if e.DetectDragStart(f.Left, f.Right) {
		d.Drag = KindDragStart
	}

	switchLeft := e.DetectDesktopSwitchLeft(f.Right)
	switchRight := e.DetectDesktopSwitchRight(f.Right)
	scroll := e.DetectScroll(f.Right)

	switch {
	case switchLeft:
		d.Right = KindDesktopLeft
	case switchRight:
		d.Right = KindDesktopRight
	case scroll == DirectionUp:
		d.Right = KindScrollUp
	case scroll == DirectionDown:
		d.Right = KindScrollDown
	}

	if d.Right == KindNone {
		if tip, ok := geometry.Fingertip(f.Right, detector.IndexTip); ok {
			d.Move = true
			d.Pointer = tip
		}
	}
	if d.Drag != KindNone {
		d.Right = KindNone
	}

	click := e.DetectClick(f.Left)
	copied := e.DetectCopy(f.Left)
	pasted := e.DetectPaste(f.Left)

	switch {
	case click == ClickSingle:
		d.Left = KindClick
	case click == ClickDouble:
		d.Left = KindDoubleClick
	case copied:
		d.Left = KindCopy
	case pasted:
		d.Left = KindPaste
	}

	return d
}
