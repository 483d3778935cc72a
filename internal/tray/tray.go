// Package tray provides the system tray menu for Mudra.
package tray

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
)

var log = logrus.WithField("component", "tray")

// Tray is the menu bar presence of the running application.
type Tray struct {
	onToggle  func(enabled bool)
	onQuit    func()
	statusURL string
	enabled   bool
	dragging  bool
	last      string
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
	menuDrag        *systray.MenuItem
}

// New creates a Tray. statusURL is opened by the status page item; an
// empty URL hides it.
func New(statusURL string) *Tray {
	return &Tray{
		enabled:   true,
		statusURL: statusURL,
	}
}

// OnToggle sets the callback called when the user toggles gesture control.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback called when the quit item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray. It must be called from the main goroutine and
// blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture control")
	systray.AddSeparator()

	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last detected gesture")
	t.menuLastGesture.Disable()
	t.menuDrag = systray.AddMenuItem(dragTitle(t.dragging), "Drag state")
	t.menuDrag.Disable()
	systray.AddSeparator()

	menuStatus := systray.AddMenuItem("Open Status Page...", "Open the status page in a browser")
	if t.statusURL == "" {
		menuStatus.Hide()
	}
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuStatus.ClickedCh:
				t.openStatusPage()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the enabled state and notifies the callback outside
// the lock.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.setTitle(t.menuToggle, toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

func (t *Tray) openStatusPage() {
	if err := openURL(t.statusURL); err != nil {
		log.WithError(err).Warn("failed to open status page")
	}
}

// SetEnabled reflects a state change made elsewhere, without calling OnToggle.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	t.setTitle(t.menuToggle, toggleTitle(enabled))
	if !enabled && t.dragging {
		t.dragging = false
		t.setTitle(t.menuDrag, dragTitle(false))
	}
}

// ShowEvent updates the last gesture and drag items from a fired gesture.
func (t *Tray) ShowEvent(ev gesture.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = string(ev.Kind)
	t.setTitle(t.menuLastGesture, lastTitle(t.last))

	switch ev.Kind {
	case gesture.KindDragStart:
		t.dragging = true
	case gesture.KindDragEnd:
		t.dragging = false
	default:
		return
	}
	t.setTitle(t.menuDrag, dragTitle(t.dragging))
}

// Follow shows every event from events until the channel closes.
func (t *Tray) Follow(events <-chan gesture.Event) {
	for ev := range events {
		t.ShowEvent(ev)
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Dragging reports the drag state last shown.
func (t *Tray) Dragging() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dragging
}

// LastGesture returns the kind of the last gesture shown.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// setTitle tolerates items not created yet; Run may start after events.
func (t *Tray) setTitle(item *systray.MenuItem, title string) {
	if item != nil {
		item.SetTitle(title)
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(kind string) string {
	if kind == "" {
		return "Last: none"
	}
	return "Last: " + strings.ReplaceAll(kind, "_", " ")
}

func dragTitle(dragging bool) string {
	if dragging {
		return "Drag: holding"
	}
	return "Drag: released"
}

// browserCommand returns the command that opens url on goos.
func browserCommand(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	default:
		return "", nil, fmt.Errorf("no browser launcher for %s", goos)
	}
}

func openURL(url string) error {
	name, args, err := browserCommand(runtime.GOOS, url)
	if err != nil {
		return err
	}
	return exec.Command(name, args...).Start()
}
