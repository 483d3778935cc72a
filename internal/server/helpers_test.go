package server

import (
	"sync"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// fakeController records API calls and exposes a channel of events.
type fakeController struct {
	mu      sync.Mutex
	status  Status
	applied []*store.Profile
	events  chan gesture.Event
	once    sync.Once
	stopped bool
}

func newFakeController() *fakeController {
	return &fakeController{
		status: Status{Enabled: true, FPS: 30},
		events: make(chan gesture.Event, 8),
	}
}

func (f *fakeController) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeController) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status.Enabled = enabled
}

func (f *fakeController) ApplyProfile(p *store.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, p)
	f.status.Profile = p.Name
	return nil
}

func (f *fakeController) Subscribe() (<-chan gesture.Event, func()) {
	return f.events, func() {
		f.once.Do(func() {
			f.mu.Lock()
			f.stopped = true
			f.mu.Unlock()
			close(f.events)
		})
	}
}

func (f *fakeController) appliedProfiles() []*store.Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*store.Profile(nil), f.applied...)
}

func (f *fakeController) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}
