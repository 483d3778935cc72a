package app

import (
	"errors"
	"time"

	"github.com/ayusman/mudra/internal/capture"
)

// ErrNotConfigured is returned by Start without a camera or detector.
var ErrNotConfigured = errors.New("app: camera and detector are required")

// Start opens the camera and runs the frame loop in the background.
func (a *App) Start() error {
	if a.camera == nil || a.detector == nil {
		return ErrNotConfigured
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.settings.App.IdleFPS)
	a.tracking = false
	a.wake.Reset()

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	log.WithField("fps", a.settings.App.IdleFPS).Info("detection pipeline started")
	return nil
}

// Stop halts the frame loop, releases a held drag and closes the camera,
// wake detector and hand detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	a.mu.Lock()
	a.releaseLocked("shutdown")
	a.tracking = false
	a.mu.Unlock()

	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			log.WithError(err).Warn("error closing camera")
		}
	}
	a.wake.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			log.WithError(err).Warn("error closing detector")
		}
	}

	log.Info("detection pipeline stopped")
}

// runPipeline paces step with a ticker at the camera frame rate.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.camera.FPS()
	ticker := time.NewTicker(interval(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if err := a.step(); err != nil {
				if errors.Is(err, capture.ErrNoMoreFrames) {
					log.Debug("camera has no more frames")
				} else {
					log.WithError(err).Warn("frame skipped")
				}
			}
			if next := a.camera.FPS(); next != fps {
				fps = next
				ticker.Reset(interval(fps))
			}
		}
	}
}

func interval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultIdleFPS
	}
	return time.Second / time.Duration(fps)
}

// step reads and processes one frame.
//
// While idle only the cheap wake detector runs. Motion switches to the
// active frame rate and hand tracking. After IdleTimeout without a hand
// the loop drops back to idle, releasing any held drag.
func (a *App) step() error {
	if !a.IsEnabled() {
		return nil
	}

	frame, err := a.camera.ReadFrame()
	if err != nil {
		return err
	}
	defer frame.Close()

	a.mu.Lock()
	a.frames++
	tracking := a.tracking
	a.mu.Unlock()

	if !tracking {
		moved, changed := a.wake.Moved(frame)
		if !moved {
			return nil
		}
		a.mu.Lock()
		a.tracking = true
		a.lastHands = a.now()
		a.camera.SetFPS(a.settings.App.ActiveFPS)
		a.mu.Unlock()
		log.WithField("changed", changed).Info("motion detected, tracking hands")
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		return err
	}

	if len(hands) > 0 {
		a.mu.Lock()
		a.lastHands = a.now()
		a.mu.Unlock()
	} else if a.idleExpired() {
		return nil
	}

	a.ProcessHands(hands, frame.Cols(), frame.Rows())
	return nil
}

// idleExpired switches back to idle when no hand has been seen for the
// idle timeout, and reports whether it did.
func (a *App) idleExpired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.now().Sub(a.lastHands) < a.settings.App.IdleTimeout {
		return false
	}

	a.tracking = false
	a.releaseLocked("idle")
	a.mapper.Reset()
	a.wake.Reset()
	a.camera.SetFPS(a.settings.App.IdleFPS)
	log.Info("no hands, back to idle")
	return true
}
