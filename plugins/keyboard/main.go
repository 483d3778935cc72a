// Package main provides a keyboard plugin for macOS.
// It sends hotkey combinations via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HotkeyParams lists the keys of a combination, modifiers first.
type HotkeyParams struct {
	Keys []string `json:"keys"`
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// keyCodes covers keys that keystroke cannot type.
var keyCodes = map[string]int{
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
	"tab":    48,
	"space":  49,
	"enter":  36,
	"escape": 53,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "hotkey":
		if err := handleHotkey(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleHotkey(params json.RawMessage) error {
	var p HotkeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}

	if len(p.Keys) == 0 || p.Keys[len(p.Keys)-1] == "" {
		return fmt.Errorf("keys are required")
	}

	n := len(p.Keys) - 1
	script, err := buildHotkeyScript(p.Keys[n], p.Keys[:n])
	if err != nil {
		return err
	}
	return runAppleScript(script)
}

// buildHotkeyScript generates an AppleScript for the given key and modifiers.
func buildHotkeyScript(key string, modifiers []string) (string, error) {
	var appleModifiers []string
	for _, mod := range modifiers {
		appleMod, ok := modifierMap[strings.ToLower(mod)]
		if !ok {
			return "", fmt.Errorf("unknown modifier %q", mod)
		}
		appleModifiers = append(appleModifiers, appleMod)
	}

	press := fmt.Sprintf(`keystroke "%s"`, key)
	if code, ok := keyCodes[strings.ToLower(key)]; ok {
		press = fmt.Sprintf("key code %d", code)
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, press), nil
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`,
		press, strings.Join(appleModifiers, ", ")), nil
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
