// Package cursor turns fingertip positions in camera frames into smoothed
// screen coordinates.
package cursor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for configuration the mapper cannot work with.
var ErrInvalidConfig = errors.New("invalid pointer config")

// Config holds the screen geometry and the pointer response curve.
type Config struct {
	ScreenWidth  int `json:"screen_width"`
	ScreenHeight int `json:"screen_height"`

	// Padding is the margin in frame pixels excluded on every side, so the
	// fingertip reaches the screen edge before it leaves the camera view.
	Padding float64 `json:"padding"`

	// SmoothingFactor in (0,1]: lower is steadier, higher is snappier.
	SmoothingFactor float64 `json:"smoothing_factor"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

// DefaultConfig returns the stock response curve for a 1080p screen.
func DefaultConfig() Config {
	return Config{
		ScreenWidth:     1920,
		ScreenHeight:    1080,
		Padding:         100,
		SmoothingFactor: 0.3,
		SpeedMultiplier: 1.5,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.ScreenWidth <= 0 || c.ScreenHeight <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalidConfig, c.ScreenWidth, c.ScreenHeight)
	case c.Padding < 0 || math.IsNaN(c.Padding) || math.IsInf(c.Padding, 0):
		return fmt.Errorf("%w: padding %v", ErrInvalidConfig, c.Padding)
	case !(c.SmoothingFactor > 0 && c.SmoothingFactor <= 1):
		return fmt.Errorf("%w: smoothing factor %v not in (0,1]", ErrInvalidConfig, c.SmoothingFactor)
	case !(c.SpeedMultiplier > 0) || math.IsInf(c.SpeedMultiplier, 0):
		return fmt.Errorf("%w: speed multiplier %v", ErrInvalidConfig, c.SpeedMultiplier)
	}
	return nil
}

// Mapper remaps and low-pass filters pointer positions. It is not safe for
// concurrent use.
type Mapper struct {
	cfg Config

	seeded bool
	prevX  float64
	prevY  float64
}

// NewMapper validates cfg and returns an unseeded mapper.
func NewMapper(cfg Config) (*Mapper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{cfg: cfg}, nil
}

// Config returns the active configuration.
func (m *Mapper) Config() Config {
	return m.cfg
}

// SetConfig replaces the configuration. The filter state is kept so the
// cursor does not jump.
func (m *Mapper) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

// MapToScreen linearly remaps [padding, frame-padding] on each axis onto
// [0, screen]. Positions inside the padding clamp to the screen edge.
func (m *Mapper) MapToScreen(x, y, frameWidth, frameHeight float64) (float64, float64) {
	p := m.cfg.Padding
	sx := interp(x, p, frameWidth-p, float64(m.cfg.ScreenWidth))
	sy := interp(y, p, frameHeight-p, float64(m.cfg.ScreenHeight))
	return sx, sy
}

func interp(v, lo, hi, out float64) float64 {
	switch {
	case v <= lo:
		return 0
	case v >= hi:
		return out
	}
	return (v - lo) / (hi - lo) * out
}

// Smooth applies prev + (cur-prev) * smoothing * speed per axis. The first
// call after construction or Reset returns its input and seeds the filter.
func (m *Mapper) Smooth(x, y float64) (float64, float64) {
	if !m.seeded {
		m.seeded = true
		m.prevX, m.prevY = x, y
		return x, y
	}

	gain := m.cfg.SmoothingFactor * m.cfg.SpeedMultiplier
	m.prevX += (x - m.prevX) * gain
	m.prevY += (y - m.prevY) * gain
	return m.prevX, m.prevY
}

// Update maps a frame-pixel fingertip to a smoothed integer screen position.
func (m *Mapper) Update(x, y, frameWidth, frameHeight float64) (int, int) {
	sx, sy := m.MapToScreen(x, y, frameWidth, frameHeight)
	sx, sy = m.Smooth(sx, sy)
	return int(math.Round(sx)), int(math.Round(sy))
}

// Reset forgets the previous position; the next Smooth call reseeds.
func (m *Mapper) Reset() {
	m.seeded = false
	m.prevX, m.prevY = 0, 0
}
