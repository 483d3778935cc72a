package action

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// RobotSink drives the local mouse and keyboard with robotgo.
type RobotSink struct{}

// NewRobotSink returns a sink acting on the current desktop session.
func NewRobotSink() *RobotSink {
	return &RobotSink{}
}

func (r *RobotSink) Move(x, y int) error {
	robotgo.Move(x, y)
	return nil
}

func (r *RobotSink) Click() error {
	robotgo.Click("left", false)
	return nil
}

func (r *RobotSink) DoubleClick() error {
	robotgo.Click("left", true)
	return nil
}

func (r *RobotSink) Scroll(delta int) error {
	switch {
	case delta > 0:
		robotgo.ScrollDir(delta, "up")
	case delta < 0:
		robotgo.ScrollDir(-delta, "down")
	}
	return nil
}

func (r *RobotSink) MouseDown() error {
	return robotgo.Toggle("left")
}

func (r *RobotSink) MouseUp() error {
	return robotgo.Toggle("left", "up")
}

func (r *RobotSink) Hotkey(keys ...string) error {
	if len(keys) == 0 {
		return fmt.Errorf("%w: no keys", ErrInvalidCombo)
	}

	n := len(keys) - 1
	mods := make([]interface{}, 0, n)
	for _, m := range keys[:n] {
		mods = append(mods, m)
	}
	return robotgo.KeyTap(keys[n], mods...)
}

// ScreenSize reports the main display size in pixels.
func (r *RobotSink) ScreenSize() (int, int) {
	return robotgo.GetScreenSize()
}
