package cursor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMapper(t *testing.T) *Mapper {
	t.Helper()
	m, err := NewMapper(DefaultConfig())
	require.NoError(t, err)
	return m
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.ScreenWidth = 0 }},
		{"negative height", func(c *Config) { c.ScreenHeight = -1 }},
		{"negative padding", func(c *Config) { c.Padding = -10 }},
		{"NaN padding", func(c *Config) { c.Padding = math.NaN() }},
		{"zero smoothing", func(c *Config) { c.SmoothingFactor = 0 }},
		{"smoothing above one", func(c *Config) { c.SmoothingFactor = 1.2 }},
		{"zero speed", func(c *Config) { c.SpeedMultiplier = 0 }},
		{"infinite speed", func(c *Config) { c.SpeedMultiplier = math.Inf(1) }},
	}

	require.NoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewMapper(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestMapper_MapToScreen(t *testing.T) {
	m := newTestMapper(t)
	const fw, fh = 640.0, 480.0

	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{"padding maps to origin", 100, 100, 0, 0},
		{"far edge maps to screen size", 540, 380, 1920, 1080},
		{"centre maps to centre", 320, 240, 960, 540},
		{"inside the left margin clamps", 20, 240, 0, 540},
		{"outside the frame clamps", 900, -50, 1920, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := m.MapToScreen(tt.x, tt.y, fw, fh)
			assert.InDelta(t, tt.wantX, x, 1e-9)
			assert.InDelta(t, tt.wantY, y, 1e-9)
		})
	}
}

func TestMapper_MapToScreen_AnyPadding(t *testing.T) {
	const fw, fh = 1280.0, 720.0

	for _, padding := range []float64{0, 1, 50, 200, 359} {
		cfg := DefaultConfig()
		cfg.Padding = padding
		m, err := NewMapper(cfg)
		require.NoError(t, err)

		x, _ := m.MapToScreen(padding, fh/2, fw, fh)
		assert.Equal(t, 0.0, x, "padding %v", padding)

		x, _ = m.MapToScreen(fw-padding, fh/2, fw, fh)
		assert.InDelta(t, float64(cfg.ScreenWidth), x, 1e-9, "padding %v", padding)
	}
}

func TestMapper_MapToScreen_DegenerateFrame(t *testing.T) {
	m := newTestMapper(t)

	// Padding swallows the whole frame: every position lands on an edge.
	x, y := m.MapToScreen(100, 100, 150, 150)
	assert.False(t, math.IsNaN(x) || math.IsNaN(y))
}

func TestMapper_Smooth(t *testing.T) {
	t.Run("first call seeds", func(t *testing.T) {
		m := newTestMapper(t)

		x, y := m.Smooth(300, 400)
		assert.Equal(t, 300.0, x)
		assert.Equal(t, 400.0, y)
	})

	t.Run("moves by smoothing times speed", func(t *testing.T) {
		m := newTestMapper(t)
		m.Smooth(0, 0)

		x, y := m.Smooth(100, -100)
		assert.InDelta(t, 45, x, 1e-9)
		assert.InDelta(t, -45, y, 1e-9)

		x, _ = m.Smooth(100, -100)
		assert.InDelta(t, 45+55*0.45, x, 1e-9)
	})

	t.Run("identical inputs do not drift", func(t *testing.T) {
		m := newTestMapper(t)

		x1, y1 := m.Smooth(10, 20)
		x2, y2 := m.Smooth(10, 20)
		assert.Equal(t, x1, x2)
		assert.Equal(t, y1, y2)
	})

	t.Run("reset reseeds", func(t *testing.T) {
		m := newTestMapper(t)
		m.Smooth(0, 0)
		m.Reset()

		x, y := m.Smooth(500, 500)
		assert.Equal(t, 500.0, x)
		assert.Equal(t, 500.0, y)
	})
}

func TestMapper_Update(t *testing.T) {
	m := newTestMapper(t)

	x, y := m.Update(320, 240, 640, 480)
	assert.Equal(t, 960, x)
	assert.Equal(t, 540, y)

	x, y = m.Update(540, 380, 640, 480)
	assert.Equal(t, 1392, x) // 960 + 960*0.45
	assert.Equal(t, 783, y)  // 540 + 540*0.45
}

func TestMapper_SetConfig(t *testing.T) {
	m := newTestMapper(t)
	m.Smooth(100, 100)

	bad := DefaultConfig()
	bad.SmoothingFactor = 0
	assert.ErrorIs(t, m.SetConfig(bad), ErrInvalidConfig)

	cfg := DefaultConfig()
	cfg.SmoothingFactor = 1
	cfg.SpeedMultiplier = 1
	require.NoError(t, m.SetConfig(cfg))

	x, _ := m.Smooth(200, 100)
	assert.Equal(t, 200.0, x, "unit gain jumps straight to the input")
	assert.Equal(t, cfg, m.Config())
}
