package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/plugin"
)

// PluginSink forwards commands to external plugins. A command no plugin
// declares goes to the fallback sink, or fails with ErrUnsupported when
// there is none.
type PluginSink struct {
	ctx      context.Context
	exec     *plugin.Executor
	plugins  *plugin.Manager
	fallback Sink
}

// NewPluginSink returns a sink bound to ctx; cancelling it aborts running
// plugins. fallback may be nil.
func NewPluginSink(ctx context.Context, exec *plugin.Executor, plugins *plugin.Manager, fallback Sink) *PluginSink {
	return &PluginSink{ctx: ctx, exec: exec, plugins: plugins, fallback: fallback}
}

func (p *PluginSink) pointer(params plugin.PointerParams, viaFallback func(Sink) error) error {
	pl, err := p.plugins.ForAction(plugin.ActionPointer)
	if errors.Is(err, plugin.ErrPluginNotFound) {
		if p.fallback == nil {
			return fmt.Errorf("%w: %s", ErrUnsupported, params.Op)
		}
		return viaFallback(p.fallback)
	}
	if err != nil {
		return err
	}

	req, err := plugin.NewRequest(plugin.ActionPointer, params.Op, params)
	if err != nil {
		return err
	}
	return p.exec.Run(p.ctx, pl, req)
}

func (p *PluginSink) Move(x, y int) error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpMove, X: x, Y: y},
		func(s Sink) error { return s.Move(x, y) })
}

func (p *PluginSink) Click() error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpClick}, Sink.Click)
}

func (p *PluginSink) DoubleClick() error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpDoubleClick}, Sink.DoubleClick)
}

func (p *PluginSink) Scroll(delta int) error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpScroll, Delta: delta},
		func(s Sink) error { return s.Scroll(delta) })
}

func (p *PluginSink) MouseDown() error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpMouseDown}, Sink.MouseDown)
}

func (p *PluginSink) MouseUp() error {
	return p.pointer(plugin.PointerParams{Op: plugin.OpMouseUp}, Sink.MouseUp)
}

func (p *PluginSink) Hotkey(keys ...string) error {
	pl, err := p.plugins.ForAction(plugin.ActionHotkey)
	if errors.Is(err, plugin.ErrPluginNotFound) {
		if p.fallback == nil {
			return fmt.Errorf("%w: hotkey %s", ErrUnsupported, FormatCombo(keys))
		}
		return p.fallback.Hotkey(keys...)
	}
	if err != nil {
		return err
	}

	req, err := plugin.NewRequest(plugin.ActionHotkey, FormatCombo(keys), plugin.HotkeyParams{Keys: keys})
	if err != nil {
		return err
	}
	return p.exec.Run(p.ctx, pl, req)
}

// ScreenSize defers to the fallback when it knows the screen.
func (p *PluginSink) ScreenSize() (int, int) {
	if s, ok := p.fallback.(ScreenSizer); ok {
		return s.ScreenSize()
	}
	return 0, 0
}
