package gesture

// Direction is a scroll sample or a confirmed scroll direction.
type Direction string

const (
	DirectionNone Direction = ""
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// scrollVoter smooths per-frame scroll samples with a majority vote over
// the most recent samples. Once a direction is confirmed it is reported on
// every frame until a frame without a scroll pinch clears the buffer.
type scrollVoter struct {
	samples   []Direction
	confirmed Direction
}

func (s *scrollVoter) push(sample Direction, size, votes int) Direction {
	if sample == DirectionNone {
		s.reset()
		return DirectionNone
	}

	if len(s.samples) >= size {
		n := copy(s.samples, s.samples[len(s.samples)-size+1:])
		s.samples = s.samples[:n]
	}
	s.samples = append(s.samples, sample)

	if len(s.samples) < votes {
		return s.confirmed
	}

	var up, down int
	for _, d := range s.samples {
		switch d {
		case DirectionUp:
			up++
		case DirectionDown:
			down++
		}
	}

	switch {
	case up > down && up >= votes:
		s.confirmed = DirectionUp
	case down > up && down >= votes:
		s.confirmed = DirectionDown
	}
	return s.confirmed
}

func (s *scrollVoter) reset() {
	s.samples = s.samples[:0]
	s.confirmed = DirectionNone
}
