package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

// ClickKind is the outcome of a click detector for one frame.
type ClickKind string

const (
	ClickNone   ClickKind = ""
	ClickSingle ClickKind = "single"
	ClickDouble ClickKind = "double"
)

// Clock returns the current time. Hold durations are measured with it.
type Clock func() time.Time

// ClickDetector classifies left-hand pinches into clicks. It is called once
// per frame with the left hand, or nil when the hand is absent.
type ClickDetector interface {
	Detect(hand *detector.HandLandmarks) ClickKind
	Reset()
}

// PinchClassifier waits for ClickHoldFrames consecutive pinched frames
// before it considers the pinch engaged, then classifies it on release by
// how long it was held.
type PinchClassifier struct {
	cal *Calibration
	now Clock

	pinchedFrames int
	engaged       bool
	engagedAt     time.Time
	cd            cooldown
}

// NewPinchClassifier reads thresholds through cal so calibration updates apply in place.
func NewPinchClassifier(cal *Calibration, now Clock) *PinchClassifier {
	return &PinchClassifier{cal: cal, now: now}
}

// Detect advances the pinch state by one frame.
func (p *PinchClassifier) Detect(hand *detector.HandLandmarks) ClickKind {
	if p.cd.blocked() {
		return ClickNone
	}

	// A hand that leaves the frame cancels the pinch instead of releasing it.
	if hand == nil {
		p.release()
		return ClickNone
	}

	if geometry.Distance(hand, detector.ThumbTip, detector.IndexTip) < p.cal.ClickThreshold {
		p.pinchedFrames++
		if !p.engaged && p.pinchedFrames >= p.cal.ClickHoldFrames {
			p.engaged = true
			p.engagedAt = p.now()
		}
		return ClickNone
	}

	if !p.engaged {
		p.pinchedFrames = 0
		return ClickNone
	}

	held := p.now().Sub(p.engagedAt)
	p.release()
	p.cd.arm(p.cal.CooldownFrames)

	if held >= p.cal.DoubleClickHoldTime {
		return ClickDouble
	}
	return ClickSingle
}

// Reset drops any pending pinch and the cooldown.
func (p *PinchClassifier) Reset() {
	p.release()
	p.cd.clear()
}

func (p *PinchClassifier) release() {
	p.pinchedFrames = 0
	p.engaged = false
	p.engagedAt = time.Time{}
}

// TapClicker fires a click when a thumb-index pinch is released within
// SingleClickMaxTime, and a double click on a thumb-middle pinch. A pinch
// held past the limit is treated as deliberate and fires nothing.
type TapClicker struct {
	cal *Calibration
	now Clock

	pinching  bool
	startedAt time.Time
	singleCD  cooldown
	doubleCD  cooldown
}

// NewTapClicker reads thresholds through cal so calibration updates apply in place.
func NewTapClicker(cal *Calibration, now Clock) *TapClicker {
	return &TapClicker{cal: cal, now: now}
}

// Detect runs the single and double click checks, in that order. Both are
// evaluated every frame; the single click claims the frame when both fire.
func (t *TapClicker) Detect(hand *detector.HandLandmarks) ClickKind {
	single := t.detectSingle(hand)
	double := t.detectDouble(hand)

	switch {
	case single:
		return ClickSingle
	case double:
		return ClickDouble
	default:
		return ClickNone
	}
}

func (t *TapClicker) detectSingle(hand *detector.HandLandmarks) bool {
	if t.singleCD.blocked() {
		return false
	}

	if hand == nil {
		t.pinching = false
		return false
	}

	now := t.now()
	if geometry.Distance(hand, detector.ThumbTip, detector.IndexTip) < t.cal.ClickThreshold {
		if !t.pinching {
			t.pinching = true
			t.startedAt = now
		}
		return false
	}

	if !t.pinching {
		return false
	}
	t.pinching = false

	if now.Sub(t.startedAt) < t.cal.SingleClickMaxTime {
		t.singleCD.arm(t.cal.SingleClickCooldownFrames)
		return true
	}
	return false
}

func (t *TapClicker) detectDouble(hand *detector.HandLandmarks) bool {
	if t.doubleCD.blocked() {
		return false
	}

	if geometry.Distance(hand, detector.ThumbTip, detector.MiddleTip) < t.cal.DoubleClickThreshold {
		t.doubleCD.arm(t.cal.CooldownFrames)
		return true
	}
	return false
}

// Reset drops any pending tap and both cooldowns.
func (t *TapClicker) Reset() {
	t.pinching = false
	t.startedAt = time.Time{}
	t.singleCD.clear()
	t.doubleCD.clear()
}
