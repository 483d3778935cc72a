package gesture

// cooldown counts the frames left before a gesture may fire again.
//
// After arm(R) the next R-1 checks are blocked and the R-th check is free
// to evaluate geometry, so a gesture held still re-fires every R frames.
type cooldown struct {
	remaining int
}

// blocked consumes one frame and reports whether the gesture must stay silent.
func (c *cooldown) blocked() bool {
	if c.remaining > 0 {
		c.remaining--
		return c.remaining > 0
	}
	return false
}

func (c *cooldown) arm(frames int) {
	c.remaining = frames
}

func (c *cooldown) clear() {
	c.remaining = 0
}
