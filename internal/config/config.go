// Package config loads Mudra's INI configuration file.
//
// Every section maps onto the settings struct of the package that owns it.
// Keys use lower snake case derived from the field names, so the
// calibration key for ClickThreshold is click_threshold. A missing file or
// key keeps the default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Sink names accepted in [actions] sink.
const (
	SinkRobot  = "robotgo"
	SinkPlugin = "plugin"
	SinkLog    = "log"
)

// CameraConfig is the [camera] section.
type CameraConfig struct {
	Device int
	Width  int
	Height int
	Mirror bool
}

// PointerConfig is the [pointer] section. Zero screen dimensions are
// filled in from the action sink at startup.
type PointerConfig struct {
	cursor.Config
	ScrollSpeed int
}

// ActionsConfig is the [actions] section.
type ActionsConfig struct {
	Sink      string
	PluginDir string
	Timeout   time.Duration
}

// ServerConfig is the [server] section.
type ServerConfig struct {
	Enabled bool
	Addr    string
}

// StoreConfig is the [store] section.
type StoreConfig struct {
	Path string
}

// LogConfig is the [log] section.
type LogConfig struct {
	Level string
}

// AppConfig is the [app] section: frame pacing and the tray.
type AppConfig struct {
	IdleFPS       int           `ini:"idle_fps"`
	ActiveFPS     int           `ini:"active_fps"`
	IdleTimeout   time.Duration `ini:"idle_timeout"`
	WakeThreshold float64       `ini:"wake_threshold"`
	Tray          bool          `ini:"tray"`
}

// Config is the whole configuration file.
type Config struct {
	Camera      CameraConfig
	Detector    detector.Config
	Calibration gesture.Calibration
	Pointer     PointerConfig
	Hotkeys     action.Hotkeys
	Actions     ActionsConfig
	Server      ServerConfig
	Store       StoreConfig
	Log         LogConfig
	App         AppConfig
}

// Dir is the per-user data directory, ~/.mudra.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

// DefaultPath is where the configuration file is looked up.
func DefaultPath() string {
	return filepath.Join(Dir(), "mudra.ini")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Device: 0,
			Width:  capture.DefaultWidth,
			Height: capture.DefaultHeight,
			Mirror: true,
		},
		Detector:    detector.DefaultConfig(),
		Calibration: gesture.DefaultCalibration(),
		Pointer: PointerConfig{
			Config: cursor.Config{
				Padding:         100,
				SmoothingFactor: 0.3,
				SpeedMultiplier: 1.5,
			},
			ScrollSpeed: 3,
		},
		Hotkeys: action.DefaultHotkeys(),
		Actions: ActionsConfig{
			Sink:      SinkRobot,
			PluginDir: filepath.Join(Dir(), "plugins"),
			Timeout:   2 * time.Second,
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:8765",
		},
		Store: StoreConfig{
			Path: filepath.Join(Dir(), "mudra.db"),
		},
		Log: LogConfig{
			Level: "info",
		},
		App: AppConfig{
			IdleFPS:       capture.DefaultIdleFPS,
			ActiveFPS:     capture.DefaultActiveFPS,
			IdleTimeout:   3 * time.Second,
			WakeThreshold: capture.DefaultWakeThreshold,
			Tray:          true,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	f, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return fromFile(f)
}

// Parse reads configuration from INI data over the defaults.
func Parse(data []byte) (*Config, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	f.NameMapper = ini.TitleUnderscore
	c := Default()

	sections := []struct {
		name string
		dst  any
	}{
		{"camera", &c.Camera},
		{"detector", &c.Detector},
		{"calibration", &c.Calibration},
		{"pointer", &c.Pointer.Config},
		{"actions", &c.Actions},
		{"server", &c.Server},
		{"store", &c.Store},
		{"log", &c.Log},
		{"app", &c.App},
	}
	for _, s := range sections {
		if err := f.Section(s.name).StrictMapTo(s.dst); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}

	pointer := f.Section("pointer")
	if pointer.HasKey("scroll_speed") {
		v, err := pointer.Key("scroll_speed").Int()
		if err != nil {
			return nil, fmt.Errorf("section [pointer]: scroll_speed: %w", err)
		}
		c.Pointer.ScrollSpeed = v
	}

	hotkeys := f.Section("hotkeys")
	for key, dst := range map[string]*[]string{
		"copy":          &c.Hotkeys.Copy,
		"paste":         &c.Hotkeys.Paste,
		"desktop_left":  &c.Hotkeys.DesktopLeft,
		"desktop_right": &c.Hotkeys.DesktopRight,
	} {
		if !hotkeys.HasKey(key) {
			continue
		}
		keys, err := action.ParseCombo(hotkeys.Key(key).String())
		if err != nil {
			return nil, fmt.Errorf("section [hotkeys]: %s: %w", key, err)
		}
		*dst = keys
	}

	c.Store.Path = expandHome(c.Store.Path)
	c.Actions.PluginDir = expandHome(c.Actions.PluginDir)

	return c, nil
}

func expandHome(p string) string {
	if len(p) > 1 && p[0] == '~' && (p[1] == '/' || p[1] == filepath.Separator) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("%w: camera size %dx%d", ErrInvalid, c.Camera.Width, c.Camera.Height)
	}
	if 2*c.Pointer.Padding >= float64(c.Camera.Width) || 2*c.Pointer.Padding >= float64(c.Camera.Height) {
		return fmt.Errorf("%w: pointer padding %v leaves no active area in a %dx%d frame",
			ErrInvalid, c.Pointer.Padding, c.Camera.Width, c.Camera.Height)
	}

	if c.Detector.MaxHands < 2 {
		return fmt.Errorf("%w: detector max_hands %d, two hands are needed", ErrInvalid, c.Detector.MaxHands)
	}
	for name, v := range map[string]float64{
		"min_confidence":    c.Detector.MinConfidence,
		"min_tracking_conf": c.Detector.MinTrackingConf,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: detector %s %v not in [0,1]", ErrInvalid, name, v)
		}
	}

	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	// Screen size may still be unknown here; check the rest with a stand-in.
	pointer := c.Pointer.Config
	if pointer.ScreenWidth == 0 && pointer.ScreenHeight == 0 {
		pointer.ScreenWidth, pointer.ScreenHeight = 1, 1
	}
	if err := pointer.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Pointer.ScrollSpeed <= 0 {
		return fmt.Errorf("%w: pointer scroll_speed %d", ErrInvalid, c.Pointer.ScrollSpeed)
	}

	if err := c.Hotkeys.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Actions.Sink {
	case SinkRobot, SinkPlugin, SinkLog:
	default:
		return fmt.Errorf("%w: actions sink %q", ErrInvalid, c.Actions.Sink)
	}
	if c.Actions.Timeout <= 0 {
		return fmt.Errorf("%w: actions timeout %s", ErrInvalid, c.Actions.Timeout)
	}

	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("%w: server addr is empty", ErrInvalid)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("%w: store path is empty", ErrInvalid)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level: %w", ErrInvalid, err)
	}

	if c.App.IdleFPS <= 0 || c.App.ActiveFPS < c.App.IdleFPS {
		return fmt.Errorf("%w: fps idle=%d active=%d", ErrInvalid, c.App.IdleFPS, c.App.ActiveFPS)
	}
	if c.App.IdleTimeout <= 0 {
		return fmt.Errorf("%w: app idle_timeout %s", ErrInvalid, c.App.IdleTimeout)
	}
	if c.App.WakeThreshold <= 0 || c.App.WakeThreshold > 100 {
		return fmt.Errorf("%w: app wake_threshold %v", ErrInvalid, c.App.WakeThreshold)
	}

	return nil
}

// WriteTo writes c as INI, in the format Load reads.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	f := ini.Empty()
	f.NameMapper = ini.TitleUnderscore

	sections := []struct {
		name string
		src  any
	}{
		{"camera", &c.Camera},
		{"detector", &c.Detector},
		{"calibration", &c.Calibration},
		{"pointer", &c.Pointer.Config},
		{"actions", &c.Actions},
		{"server", &c.Server},
		{"store", &c.Store},
		{"log", &c.Log},
		{"app", &c.App},
	}
	for _, s := range sections {
		if err := f.Section(s.name).ReflectFrom(s.src); err != nil {
			return 0, fmt.Errorf("section [%s]: %w", s.name, err)
		}
	}

	f.Section("pointer").Key("scroll_speed").SetValue(fmt.Sprint(c.Pointer.ScrollSpeed))

	// Durations reflect as nanoseconds; write them the way people type them.
	for _, d := range []struct {
		section, key string
		value        time.Duration
	}{
		{"calibration", "double_click_hold_time", c.Calibration.DoubleClickHoldTime},
		{"calibration", "single_click_max_time", c.Calibration.SingleClickMaxTime},
		{"actions", "timeout", c.Actions.Timeout},
		{"app", "idle_timeout", c.App.IdleTimeout},
	} {
		f.Section(d.section).Key(d.key).SetValue(d.value.String())
	}

	hotkeys := f.Section("hotkeys")
	hotkeys.Key("copy").SetValue(action.FormatCombo(c.Hotkeys.Copy))
	hotkeys.Key("paste").SetValue(action.FormatCombo(c.Hotkeys.Paste))
	hotkeys.Key("desktop_left").SetValue(action.FormatCombo(c.Hotkeys.DesktopLeft))
	hotkeys.Key("desktop_right").SetValue(action.FormatCombo(c.Hotkeys.DesktopRight))

	return f.WriteTo(w)
}

// CameraSettings converts the [camera] and [app] sections for the capture package.
func (c *Config) CameraSettings() capture.Config {
	return capture.Config{
		DeviceID: c.Camera.Device,
		Width:    c.Camera.Width,
		Height:   c.Camera.Height,
		FPS:      c.App.IdleFPS,
		Mirror:   c.Camera.Mirror,
	}
}
