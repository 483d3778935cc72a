// Package plugin discovers and runs external action plugins for Mudra.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// The executable receives one JSON Request on stdin and answers with one
// JSON Response on stdout.
package plugin

import (
	"encoding/json"
	"slices"
)

// Actions understood by the plugin protocol.
const (
	// ActionHotkey sends a key combination. Params: HotkeyParams.
	ActionHotkey = "hotkey"
	// ActionPointer drives the mouse. Params: PointerParams.
	ActionPointer = "pointer"
)

// Pointer operations carried in PointerParams.Op.
const (
	OpMove        = "move"
	OpClick       = "click"
	OpDoubleClick = "double_click"
	OpScroll      = "scroll"
	OpMouseDown   = "mouse_down"
	OpMouseUp     = "mouse_up"
)

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the plugin declares action.
func (m Manifest) Supports(action string) bool {
	return slices.Contains(m.Actions, action)
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// HotkeyParams names the keys of a combination, modifiers first.
type HotkeyParams struct {
	Keys []string `json:"keys"`
}

// PointerParams is one pointer operation.
type PointerParams struct {
	Op    string `json:"op"`
	X     int    `json:"x,omitempty"`
	Y     int    `json:"y,omitempty"`
	Delta int    `json:"delta,omitempty"`
}

// NewRequest marshals params into a request for action.
func NewRequest(action, gesture string, params any) (*Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return &Request{Action: action, Gesture: gesture, Params: raw}, nil
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
