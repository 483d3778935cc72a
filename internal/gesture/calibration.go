// Package gesture turns per-frame hand geometry into discrete pointer gestures.
//
// An Engine owns every piece of temporal state (cooldown counters, hold
// timers, the scroll vote buffer and the drag latch). It is not safe for
// concurrent use; the frame loop that owns it serializes access.
//
// Cooldowns are counted in frames while hold durations are measured on the
// wall clock, so the real-time length of a cooldown follows the frame rate.
package gesture

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidCalibration is returned when a Calibration fails validation.
var ErrInvalidCalibration = errors.New("invalid calibration")

// Strategy names a click detection design.
type Strategy string

const (
	// StrategyPinch debounces a thumb-index pinch and classifies it on
	// release: a short hold is a click, a long hold a double click.
	StrategyPinch Strategy = "pinch"
	// StrategyTap fires a click on a quick thumb-index tap and a double
	// click on a thumb-middle pinch.
	StrategyTap Strategy = "tap"
)

// Calibration holds every threshold the engine uses. Distances are in frame
// pixels, cooldowns in frames.
type Calibration struct {
	ClickStrategy Strategy `json:"click_strategy"`

	// ClickThreshold is the thumb-index pinch distance for both strategies.
	ClickThreshold float64 `json:"click_threshold"`
	// ClickHoldFrames is the number of consecutive pinched frames before a
	// pinch counts as engaged (pinch strategy).
	ClickHoldFrames int `json:"click_hold_frames"`
	// DoubleClickHoldTime is the hold at or above which a pinch releases as
	// a double click (pinch strategy).
	DoubleClickHoldTime time.Duration `json:"double_click_hold_time"`
	// SingleClickMaxTime is the longest tap still treated as a click (tap strategy).
	SingleClickMaxTime time.Duration `json:"single_click_max_time"`
	// SingleClickCooldownFrames is the cooldown after a tap click.
	SingleClickCooldownFrames int `json:"single_click_cooldown_frames"`
	// DoubleClickThreshold is the thumb-middle distance (tap strategy).
	DoubleClickThreshold float64 `json:"double_click_threshold"`

	CopyThreshold          float64 `json:"copy_threshold"`
	PasteThreshold         float64 `json:"paste_threshold"`
	DesktopSwitchThreshold float64 `json:"desktop_switch_threshold"`

	ScrollUpThreshold   float64 `json:"scroll_up_threshold"`
	ScrollDownThreshold float64 `json:"scroll_down_threshold"`
	// ScrollBufferSize is the number of recent samples kept for the vote.
	ScrollBufferSize int `json:"scroll_buffer_size"`
	// ScrollVotes is the number of agreeing samples needed to confirm a direction.
	ScrollVotes int `json:"scroll_votes"`

	DragStartThreshold float64 `json:"drag_start_threshold"`
	DragEndThreshold   float64 `json:"drag_end_threshold"`

	// CooldownFrames is the reset value for every cooldown-gated gesture
	// except the tap click.
	CooldownFrames int `json:"cooldown_frames"`
}

// DefaultCalibration returns thresholds tuned for a 640x480 camera at arm's length.
func DefaultCalibration() Calibration {
	return Calibration{
		ClickStrategy:             StrategyPinch,
		ClickThreshold:            30,
		ClickHoldFrames:           3,
		DoubleClickHoldTime:       2 * time.Second,
		SingleClickMaxTime:        500 * time.Millisecond,
		SingleClickCooldownFrames: 15,
		DoubleClickThreshold:      30,
		CopyThreshold:             30,
		PasteThreshold:            30,
		DesktopSwitchThreshold:    30,
		ScrollUpThreshold:         25,
		ScrollDownThreshold:       25,
		ScrollBufferSize:          5,
		ScrollVotes:               3,
		DragStartThreshold:        40,
		DragEndThreshold:          40,
		CooldownFrames:            20,
	}
}

// Validate reports the first invalid field, wrapped in ErrInvalidCalibration.
func (c Calibration) Validate() error {
	switch c.ClickStrategy {
	case StrategyPinch, StrategyTap:
	default:
		return fmt.Errorf("%w: unknown click strategy %q", ErrInvalidCalibration, c.ClickStrategy)
	}

	thresholds := []struct {
		name  string
		value float64
	}{
		{"click_threshold", c.ClickThreshold},
		{"double_click_threshold", c.DoubleClickThreshold},
		{"copy_threshold", c.CopyThreshold},
		{"paste_threshold", c.PasteThreshold},
		{"desktop_switch_threshold", c.DesktopSwitchThreshold},
		{"scroll_up_threshold", c.ScrollUpThreshold},
		{"scroll_down_threshold", c.ScrollDownThreshold},
		{"drag_start_threshold", c.DragStartThreshold},
		{"drag_end_threshold", c.DragEndThreshold},
	}
	for _, th := range thresholds {
		if math.IsNaN(th.value) || math.IsInf(th.value, 0) || th.value <= 0 {
			return fmt.Errorf("%w: %s must be a positive distance, got %v", ErrInvalidCalibration, th.name, th.value)
		}
	}

	if c.CooldownFrames < 0 {
		return fmt.Errorf("%w: cooldown_frames must be >= 0, got %d", ErrInvalidCalibration, c.CooldownFrames)
	}
	if c.SingleClickCooldownFrames < 0 {
		return fmt.Errorf("%w: single_click_cooldown_frames must be >= 0, got %d", ErrInvalidCalibration, c.SingleClickCooldownFrames)
	}
	if c.ClickHoldFrames < 1 {
		return fmt.Errorf("%w: click_hold_frames must be >= 1, got %d", ErrInvalidCalibration, c.ClickHoldFrames)
	}
	if c.DoubleClickHoldTime <= 0 {
		return fmt.Errorf("%w: double_click_hold_time must be positive", ErrInvalidCalibration)
	}
	if c.SingleClickMaxTime <= 0 {
		return fmt.Errorf("%w: single_click_max_time must be positive", ErrInvalidCalibration)
	}
	if c.ScrollBufferSize < 1 {
		return fmt.Errorf("%w: scroll_buffer_size must be >= 1, got %d", ErrInvalidCalibration, c.ScrollBufferSize)
	}
	if c.ScrollVotes < 1 || c.ScrollVotes > c.ScrollBufferSize {
		return fmt.Errorf("%w: scroll_votes must be in [1, %d], got %d", ErrInvalidCalibration, c.ScrollBufferSize, c.ScrollVotes)
	}

	return nil
}
