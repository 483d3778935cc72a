package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
)

func TestDefault_Valid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
[camera]
device = 1
mirror = false

[detector]
min_confidence = 0.6

[calibration]
click_strategy = tap
copy_threshold = 22.5
cooldown_frames = 12
single_click_max_time = 400ms

[pointer]
padding = 80
smoothing_factor = 0.5
scroll_speed = 5

[hotkeys]
copy = cmd+c
desktop_left = ctrl+left

[actions]
sink = log
timeout = 500ms

[app]
active_fps = 24
idle_timeout = 5s
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1, cfg.Camera.Device)
	assert.False(t, cfg.Camera.Mirror)
	assert.Equal(t, 640, cfg.Camera.Width, "unset keys keep defaults")

	assert.Equal(t, 0.6, cfg.Detector.MinConfidence)
	assert.Equal(t, 2, cfg.Detector.MaxHands)

	assert.Equal(t, gesture.StrategyTap, cfg.Calibration.ClickStrategy)
	assert.Equal(t, 22.5, cfg.Calibration.CopyThreshold)
	assert.Equal(t, 12, cfg.Calibration.CooldownFrames)
	assert.Equal(t, 400*time.Millisecond, cfg.Calibration.SingleClickMaxTime)
	assert.Equal(t, gesture.DefaultCalibration().PasteThreshold, cfg.Calibration.PasteThreshold)

	assert.Equal(t, 80.0, cfg.Pointer.Padding)
	assert.Equal(t, 0.5, cfg.Pointer.SmoothingFactor)
	assert.Equal(t, 5, cfg.Pointer.ScrollSpeed)

	assert.Equal(t, []string{"cmd", "c"}, cfg.Hotkeys.Copy)
	assert.Equal(t, []string{"ctrl", "left"}, cfg.Hotkeys.DesktopLeft)
	assert.Equal(t, []string{"ctrl", "v"}, cfg.Hotkeys.Paste)

	assert.Equal(t, SinkLog, cfg.Actions.Sink)
	assert.Equal(t, 500*time.Millisecond, cfg.Actions.Timeout)

	assert.Equal(t, 24, cfg.App.ActiveFPS)
	assert.Equal(t, 5*time.Second, cfg.App.IdleTimeout)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad hotkey", "[hotkeys]\ncopy = ctrl+\n"},
		{"bad scroll speed", "[pointer]\nscroll_speed = fast\n"},
		{"bad duration", "[app]\nidle_timeout = soon\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"padding swallows frame", func(c *Config) { c.Pointer.Padding = 240 }},
		{"one hand", func(c *Config) { c.Detector.MaxHands = 1 }},
		{"confidence above one", func(c *Config) { c.Detector.MinConfidence = 1.5 }},
		{"bad calibration", func(c *Config) { c.Calibration.CooldownFrames = -1 }},
		{"bad smoothing", func(c *Config) { c.Pointer.SmoothingFactor = 0 }},
		{"zero scroll speed", func(c *Config) { c.Pointer.ScrollSpeed = 0 }},
		{"empty hotkey", func(c *Config) { c.Hotkeys.Copy = nil }},
		{"unknown sink", func(c *Config) { c.Actions.Sink = "xdotool" }},
		{"zero timeout", func(c *Config) { c.Actions.Timeout = 0 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty store", func(c *Config) { c.Store.Path = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"active below idle", func(c *Config) { c.App.ActiveFPS = 2 }},
		{"zero idle timeout", func(c *Config) { c.App.IdleTimeout = 0 }},
		{"wake threshold over 100", func(c *Config) { c.App.WakeThreshold = 120 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestValidate_ServerDisabledNeedsNoAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Enabled = false
	cfg.Server.Addr = ""
	assert.NoError(t, cfg.Validate())
}

func TestWriteTo_LoadsBack(t *testing.T) {
	cfg := Default()
	cfg.Calibration.ClickStrategy = gesture.StrategyTap
	cfg.Calibration.DoubleClickHoldTime = 1500 * time.Millisecond
	cfg.Hotkeys.Paste = []string{"cmd", "v"}
	cfg.Pointer.ScrollSpeed = 7

	var buf bytes.Buffer
	_, err := cfg.WriteTo(&buf)
	require.NoError(t, err)

	got, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "x.db"), expandHome("~/x.db"))
	assert.Equal(t, "/abs/x.db", expandHome("/abs/x.db"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
}

func TestWatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watcher test")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "mudra.ini")
	require.NoError(t, os.WriteFile(path, []byte("[pointer]\nscroll_speed = 2\n"), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("[pointer]\nscroll_speed = 0\n"), 0644))
	select {
	case <-changes:
		t.Fatal("invalid configuration should not be delivered")
	case <-time.After(400 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(path, []byte("[pointer]\nscroll_speed = 9\n"), 0644))
	select {
	case c := <-changes:
		assert.Equal(t, 9, c.Pointer.ScrollSpeed)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
