// Package action carries gesture decisions out to the operating system.
//
// A Sink is the closed set of pointer and keyboard commands the gesture
// engine can produce. Implementations drive the OS directly (RobotSink),
// forward to external plugins (PluginSink), log (LogSink) or record
// (Recorder).
package action

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned by sinks that cannot carry out a command.
var ErrUnsupported = errors.New("action not supported")

// ErrInvalidCombo is returned for malformed hotkey combinations.
var ErrInvalidCombo = errors.New("invalid hotkey combination")

// Sink receives the commands produced by the gesture engine.
type Sink interface {
	Move(x, y int) error
	Click() error
	DoubleClick() error
	// Scroll scrolls by delta notches; positive is up.
	Scroll(delta int) error
	MouseDown() error
	MouseUp() error
	// Hotkey presses keys together, modifiers first.
	Hotkey(keys ...string) error
}

// ScreenSizer is implemented by sinks that know the screen dimensions.
type ScreenSizer interface {
	ScreenSize() (width, height int)
}

// Op names a Sink command.
type Op string

const (
	OpMove        Op = "move"
	OpClick       Op = "click"
	OpDoubleClick Op = "double_click"
	OpScroll      Op = "scroll"
	OpMouseDown   Op = "mouse_down"
	OpMouseUp     Op = "mouse_up"
	OpHotkey      Op = "hotkey"
)

// Hotkeys binds the keyboard-driven gestures to key combinations.
type Hotkeys struct {
	Copy         []string `json:"copy"`
	Paste        []string `json:"paste"`
	DesktopLeft  []string `json:"desktop_left"`
	DesktopRight []string `json:"desktop_right"`
}

// DefaultHotkeys returns the stock bindings.
func DefaultHotkeys() Hotkeys {
	return Hotkeys{
		Copy:         []string{"ctrl", "c"},
		Paste:        []string{"ctrl", "v"},
		DesktopLeft:  []string{"ctrl", "cmd", "left"},
		DesktopRight: []string{"ctrl", "cmd", "right"},
	}
}

// Validate checks that every binding has at least one key.
func (h Hotkeys) Validate() error {
	for name, keys := range map[string][]string{
		"copy":          h.Copy,
		"paste":         h.Paste,
		"desktop_left":  h.DesktopLeft,
		"desktop_right": h.DesktopRight,
	} {
		if len(keys) == 0 {
			return fmt.Errorf("%w: %s is empty", ErrInvalidCombo, name)
		}
	}
	return nil
}

// ParseCombo splits a combination like "ctrl+shift+c" into lowercase keys.
func ParseCombo(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidCombo)
	}

	parts := strings.Split(s, "+")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		k := strings.ToLower(strings.TrimSpace(p))
		if k == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCombo, s)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// FormatCombo is the inverse of ParseCombo.
func FormatCombo(keys []string) string {
	return strings.Join(keys, "+")
}
