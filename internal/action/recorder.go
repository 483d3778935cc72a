package action

import "sync"

// Call is one recorded Sink command.
type Call struct {
	Op    Op
	X, Y  int
	Delta int
	Keys  []string
}

// Recorder is a Sink that remembers every command. Errors can be injected
// per operation.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	fail  map[Op]error
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{fail: make(map[Op]error)}
}

// FailOn makes every future op return err. A nil err clears it.
func (r *Recorder) FailOn(op Op, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.fail[c.Op]
}

func (r *Recorder) Move(x, y int) error    { return r.record(Call{Op: OpMove, X: x, Y: y}) }
func (r *Recorder) Click() error           { return r.record(Call{Op: OpClick}) }
func (r *Recorder) DoubleClick() error     { return r.record(Call{Op: OpDoubleClick}) }
func (r *Recorder) Scroll(delta int) error { return r.record(Call{Op: OpScroll, Delta: delta}) }
func (r *Recorder) MouseDown() error       { return r.record(Call{Op: OpMouseDown}) }
func (r *Recorder) MouseUp() error         { return r.record(Call{Op: OpMouseUp}) }

func (r *Recorder) Hotkey(keys ...string) error {
	return r.record(Call{Op: OpHotkey, Keys: append([]string(nil), keys...)})
}

// ScreenSize reports a fixed 1920x1080 screen.
func (r *Recorder) ScreenSize() (int, int) {
	return 1920, 1080
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Ops returns the recorded operations, skipping moves unless withMoves is set.
func (r *Recorder) Ops(withMoves bool) []Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ops []Op
	for _, c := range r.calls {
		if c.Op == OpMove && !withMoves {
			continue
		}
		ops = append(ops, c.Op)
	}
	return ops
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
