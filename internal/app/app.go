// Package app wires camera, hand tracking, the gesture engine and the
// action sink into the running frame loop.
package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/cursor"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
)

var log = logrus.WithField("component", "app")

// Screen size used when neither the configuration nor the sink knows it.
const (
	fallbackScreenWidth  = 1920
	fallbackScreenHeight = 1080
)

// subscriberBuffer is how many events a slow subscriber may lag behind
// before events are dropped for it.
const subscriberBuffer = 32

// Config holds the collaborators of an App. Camera and Detector are only
// needed by Start; ProcessHands works without them.
type Config struct {
	Settings *config.Config
	Camera   capture.Camera
	Detector detector.Detector
	Sink     action.Sink
	// Store is optional; it supplies the active calibration profile and
	// remembers the enabled state.
	Store *store.Store
	// Clock replaces time.Now for hold timers and the idle timeout.
	Clock gesture.Clock
}

// App is the main application that turns tracked hands into OS input.
type App struct {
	camera   capture.Camera
	detector detector.Detector
	sink     action.Sink
	store    *store.Store
	now      gesture.Clock
	wake     *capture.WakeDetector

	mu          sync.Mutex
	settings    *config.Config
	engine      *gesture.Engine
	mapper      *cursor.Mapper
	enabled     bool
	profile     string
	pointerX    int
	pointerY    int
	last        *gesture.Event
	frames      uint64
	tracking    bool
	lastHands   time.Time
	onEnabled   func(bool)
	subscribers map[int]chan gesture.Event
	nextSub     int

	stopCh chan struct{}
	done   chan struct{}
}

// New validates the settings and builds an enabled App.
func New(cfg Config) (*App, error) {
	if cfg.Settings == nil {
		cfg.Settings = config.Default()
	}
	if cfg.Sink == nil {
		return nil, errors.New("app: an action sink is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	engine, err := gesture.NewEngine(cfg.Settings.Calibration, gesture.WithClock(cfg.Clock))
	if err != nil {
		return nil, err
	}
	mapper, err := cursor.NewMapper(pointerConfig(cfg.Settings, cfg.Sink))
	if err != nil {
		return nil, err
	}

	a := &App{
		camera:      cfg.Camera,
		detector:    cfg.Detector,
		sink:        cfg.Sink,
		store:       cfg.Store,
		now:         cfg.Clock,
		wake:        capture.NewWakeDetector(cfg.Settings.App.WakeThreshold),
		settings:    cfg.Settings,
		engine:      engine,
		mapper:      mapper,
		enabled:     true,
		subscribers: make(map[int]chan gesture.Event),
	}

	if a.store != nil {
		enabled, err := a.store.Settings().GetBool(store.SettingEnabled, true)
		if err != nil {
			log.WithError(err).Warn("failed to read enabled setting")
		}
		a.enabled = enabled
	}

	return a, nil
}

// pointerConfig fills an unset screen size from the sink.
func pointerConfig(settings *config.Config, sink action.Sink) cursor.Config {
	pc := settings.Pointer.Config
	if pc.ScreenWidth > 0 && pc.ScreenHeight > 0 {
		return pc
	}
	if sizer, ok := sink.(action.ScreenSizer); ok {
		if w, h := sizer.ScreenSize(); w > 0 && h > 0 {
			pc.ScreenWidth, pc.ScreenHeight = w, h
			return pc
		}
	}
	pc.ScreenWidth, pc.ScreenHeight = fallbackScreenWidth, fallbackScreenHeight
	return pc
}

// SetEnabled turns gesture control on or off. Disabling resets every
// gesture state machine and releases a held drag.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	if a.enabled == enabled {
		a.mu.Unlock()
		return
	}
	a.enabled = enabled
	if !enabled {
		a.releaseLocked("disabled")
		a.mapper.Reset()
	}
	callback := a.onEnabled
	a.mu.Unlock()

	log.WithField("enabled", enabled).Info("gesture control toggled")

	if a.store != nil {
		if err := a.store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			log.WithError(err).Warn("failed to save enabled setting")
		}
	}
	if callback != nil {
		callback(enabled)
	}
}

// releaseLocked resets the engine and issues the mouse-up owed by an
// active drag.
func (a *App) releaseLocked(reason string) {
	if !a.engine.Reset() {
		return
	}
	if err := a.sink.MouseUp(); err != nil {
		log.WithError(err).Warn("failed to release drag")
	}
	log.WithField("reason", reason).Info("drag released")
	a.publishLocked(gesture.KindDragEnd)
}

// IsEnabled returns whether gesture control is on.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// OnEnabled sets a callback run after every enabled state change.
func (a *App) OnEnabled(fn func(enabled bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onEnabled = fn
}

// Dragging reports whether the app holds the mouse button down.
func (a *App) Dragging() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Dragging()
}

// LastEvent returns the most recent fired gesture, if any.
func (a *App) LastEvent() (gesture.Event, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return gesture.Event{}, false
	}
	return *a.last, true
}

// Calibration returns the thresholds in use.
func (a *App) Calibration() gesture.Calibration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Calibration()
}

// ApplyCalibration swaps the engine thresholds between frames.
func (a *App) ApplyCalibration(cal gesture.Calibration) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.SetCalibration(cal)
}

// ApplyProfile switches to the calibration of p.
func (a *App) ApplyProfile(p *store.Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.engine.SetCalibration(p.Calibration); err != nil {
		return fmt.Errorf("apply profile %s: %w", p.Name, err)
	}
	a.profile = p.Name
	log.WithField("profile", p.Name).Info("calibration profile applied")
	return nil
}

// LoadActiveProfile applies the active profile from the store, if any.
func (a *App) LoadActiveProfile() error {
	if a.store == nil {
		return nil
	}
	p, err := a.store.Profiles().Active()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return a.ApplyProfile(p)
}

// ApplyConfig takes over the live-tunable parts of a reloaded
// configuration: calibration (unless a profile is active), pointer
// mapping, hotkeys, scroll speed and frame pacing. Camera, detector,
// server and store changes need a restart.
func (a *App) ApplyConfig(settings *config.Config) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.profile == "" {
		if err := a.engine.SetCalibration(settings.Calibration); err != nil {
			return err
		}
	}
	if err := a.mapper.SetConfig(pointerConfig(settings, a.sink)); err != nil {
		return err
	}
	a.wake.SetThreshold(settings.App.WakeThreshold)

	if settings.Camera != a.settings.Camera || settings.Detector != a.settings.Detector ||
		settings.Server != a.settings.Server || settings.Store != a.settings.Store ||
		settings.Actions != a.settings.Actions {
		log.Info("camera, detector, action, server or store changes apply after a restart")
	}

	if a.camera != nil && a.camera.IsOpen() {
		if a.tracking {
			a.camera.SetFPS(settings.App.ActiveFPS)
		} else {
			a.camera.SetFPS(settings.App.IdleFPS)
		}
	}

	a.settings = settings
	return nil
}

// Subscribe returns a stream of fired gestures. Events are dropped for a
// subscriber that falls behind. The returned function ends the
// subscription and closes the channel.
func (a *App) Subscribe() (<-chan gesture.Event, func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.nextSub
	a.nextSub++
	ch := make(chan gesture.Event, subscriberBuffer)
	a.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.subscribers, id)
			close(ch)
		})
	}
}

func (a *App) publishLocked(kind gesture.Kind) {
	ev := gesture.Event{
		Kind:      kind,
		Hand:      kind.Hand(),
		X:         a.pointerX,
		Y:         a.pointerY,
		Timestamp: a.now(),
	}
	a.last = &ev

	for _, ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Status reports the state shown by the API and status page.
func (a *App) Status() server.Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := server.Status{
		Enabled:  a.enabled,
		Dragging: a.engine.Dragging(),
		Tracking: a.tracking,
		Frames:   a.frames,
		Profile:  a.profile,
	}
	if a.camera != nil {
		s.FPS = a.camera.FPS()
	}
	if a.last != nil {
		ev := *a.last
		s.LastEvent = &ev
	}
	return s
}

// ProcessHands runs one frame of detected hands, in normalized
// coordinates, through the engine and carries out the decision. Frames
// arriving while disabled are ignored.
func (a *App) ProcessHands(hands []detector.HandLandmarks, frameWidth, frameHeight int) gesture.Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return gesture.Decision{}
	}

	frame := detector.SplitHands(hands).Denormalize(frameWidth, frameHeight)
	d := a.engine.Evaluate(frame)
	a.dispatchLocked(d, float64(frameWidth), float64(frameHeight))
	return d
}

// dispatchLocked carries out d: drag transition first, then the cursor,
// then the right and left hand events. Sink failures are logged and do
// not stop the rest of the frame.
func (a *App) dispatchLocked(d gesture.Decision, frameWidth, frameHeight float64) {
	switch d.Drag {
	case gesture.KindDragStart:
		a.fire(d.Drag, a.sink.MouseDown)
	case gesture.KindDragEnd:
		a.fire(d.Drag, a.sink.MouseUp)
	}

	if d.Move {
		a.pointerX, a.pointerY = a.mapper.Update(d.Pointer.X, d.Pointer.Y, frameWidth, frameHeight)
		if err := a.sink.Move(a.pointerX, a.pointerY); err != nil {
			log.WithError(err).Debug("move failed")
		}
	}

	hotkeys := a.settings.Hotkeys
	speed := a.settings.Pointer.ScrollSpeed

	switch d.Right {
	case gesture.KindDesktopLeft:
		a.fire(d.Right, func() error { return a.sink.Hotkey(hotkeys.DesktopLeft...) })
	case gesture.KindDesktopRight:
		a.fire(d.Right, func() error { return a.sink.Hotkey(hotkeys.DesktopRight...) })
	case gesture.KindScrollUp:
		a.fire(d.Right, func() error { return a.sink.Scroll(speed) })
	case gesture.KindScrollDown:
		a.fire(d.Right, func() error { return a.sink.Scroll(-speed) })
	}

	switch d.Left {
	case gesture.KindClick:
		a.fire(d.Left, a.sink.Click)
	case gesture.KindDoubleClick:
		a.fire(d.Left, a.sink.DoubleClick)
	case gesture.KindCopy:
		a.fire(d.Left, func() error { return a.sink.Hotkey(hotkeys.Copy...) })
	case gesture.KindPaste:
		a.fire(d.Left, func() error { return a.sink.Hotkey(hotkeys.Paste...) })
	}
}

func (a *App) fire(kind gesture.Kind, do func() error) {
	entry := log.WithFields(logrus.Fields{"kind": kind, "hand": kind.Hand()})
	if err := do(); err != nil {
		entry.WithError(err).Warn("action failed")
	}

	// Scroll repeats every frame while confirmed.
	if kind == gesture.KindScrollUp || kind == gesture.KindScrollDown {
		entry.Debug("gesture")
	} else {
		entry.Info("gesture")
	}
	a.publishLocked(kind)
}
