package app

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

const (
	frameWidth  = 640
	frameHeight = 480
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func openLeft() detector.HandLandmarks  { return detector.OpenHandLandmarks(detector.HandLeft) }
func openRight() detector.HandLandmarks { return detector.OpenHandLandmarks(detector.HandRight) }

// apartRight keeps the right hand clear of the left so no drag starts.
func apartRight() detector.HandLandmarks {
	return detector.Translate(openRight(), 0.3, 0)
}

// thumbOnLeftIndexRight puts the right thumb tip on the left index tip.
func thumbOnLeftIndexRight() detector.HandLandmarks {
	open := openRight()
	idx, thumb := open.Points[detector.IndexTip], open.Points[detector.ThumbTip]
	return detector.Translate(open, idx.X-thumb.X, idx.Y-thumb.Y)
}

func hands(h ...detector.HandLandmarks) []detector.HandLandmarks { return h }

type testApp struct {
	*App
	sink  *action.Recorder
	clock *fakeClock
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *testApp {
	t.Helper()
	return newTestAppWith(t, Config{}, mutate)
}

func newTestAppWith(t *testing.T, cfg Config, mutate func(*config.Config)) *testApp {
	t.Helper()

	settings := config.Default()
	if mutate != nil {
		mutate(settings)
	}
	sink := action.NewRecorder()
	clock := newFakeClock()

	cfg.Settings = settings
	cfg.Sink = sink
	cfg.Clock = clock.Now

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return &testApp{App: a, sink: sink, clock: clock}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// run feeds the same hands for n frames.
func (a *testApp) run(n int, h []detector.HandLandmarks) {
	for i := 0; i < n; i++ {
		a.ProcessHands(h, frameWidth, frameHeight)
		a.clock.Advance(33 * time.Millisecond)
	}
}
