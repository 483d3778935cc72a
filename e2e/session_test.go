package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayusman/mudra/internal/detector"
)

// session is a scripted sequence of hand poses with the gestures it
// should produce. Sessions live in testdata/sessions as JSON.
type session struct {
	Name        string   `json:"-"`
	Description string   `json:"description"`
	Steps       []step   `json:"steps"`
	Events      []string `json:"events"`
	Ops         []string `json:"ops"`
}

type step struct {
	Repeat int       `json:"repeat"`
	Left   *handSpec `json:"left"`
	Right  *handSpec `json:"right"`
}

// handSpec builds one hand from the mock detector poses.
type handSpec struct {
	Pose   string  `json:"pose"`
	Target string  `json:"target"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	// Touch moves the hand so Finger lands on the other hand's Other.
	Touch *struct {
		Finger string `json:"finger"`
		Other  string `json:"other"`
	} `json:"touch"`
}

var landmarkNames = map[string]int{
	"wrist":      detector.Wrist,
	"thumb_tip":  detector.ThumbTip,
	"index_pip":  detector.IndexPIP,
	"index_dip":  detector.IndexDIP,
	"index_tip":  detector.IndexTip,
	"middle_pip": detector.MiddlePIP,
	"middle_dip": detector.MiddleDIP,
	"middle_tip": detector.MiddleTip,
	"ring_tip":   detector.RingTip,
	"pinky_tip":  detector.PinkyTip,
}

func landmark(name string) (int, error) {
	i, ok := landmarkNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown landmark %q", name)
	}
	return i, nil
}

// sessionNames lists the scripted sessions, sorted.
func sessionNames() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join("testdata", "sessions", "*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, strings.TrimSuffix(filepath.Base(p), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

func loadSession(name string) (*session, error) {
	data, err := os.ReadFile(filepath.Join("testdata", "sessions", name+".json"))
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", name, err)
	}
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", name, err)
	}
	s.Name = name
	return &s, nil
}

// frames expands the steps into one hand list per frame.
func (s *session) frames() ([][]detector.HandLandmarks, error) {
	var out [][]detector.HandLandmarks
	for i, st := range s.Steps {
		hands, err := st.build()
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", s.Name, i, err)
		}
		n := max(st.Repeat, 1)
		for range n {
			out = append(out, hands)
		}
	}
	return out, nil
}

func (st step) build() ([]detector.HandLandmarks, error) {
	left, err := st.Left.pose(detector.HandLeft)
	if err != nil {
		return nil, err
	}
	right, err := st.Right.pose(detector.HandRight)
	if err != nil {
		return nil, err
	}

	if right != nil && st.Right.Touch != nil {
		if err := touch(right, left, st.Right.Touch.Finger, st.Right.Touch.Other); err != nil {
			return nil, err
		}
	}
	if left != nil && st.Left.Touch != nil {
		if err := touch(left, right, st.Left.Touch.Finger, st.Left.Touch.Other); err != nil {
			return nil, err
		}
	}

	var hands []detector.HandLandmarks
	for _, h := range []*detector.HandLandmarks{left, right} {
		if h != nil {
			hands = append(hands, *h)
		}
	}
	return hands, nil
}

func (h *handSpec) pose(handedness string) (*detector.HandLandmarks, error) {
	if h == nil {
		return nil, nil
	}

	var hand detector.HandLandmarks
	switch h.Pose {
	case "", "open":
		hand = detector.OpenHandLandmarks(handedness)
	case "pinch":
		target, err := landmark(h.Target)
		if err != nil {
			return nil, err
		}
		hand = detector.PinchLandmarks(handedness, target)
	default:
		return nil, fmt.Errorf("unknown pose %q", h.Pose)
	}

	hand = detector.Translate(hand, h.DX, h.DY)
	return &hand, nil
}

func touch(hand, other *detector.HandLandmarks, finger, target string) error {
	if other == nil {
		return fmt.Errorf("touch needs both hands")
	}
	f, err := landmark(finger)
	if err != nil {
		return err
	}
	t, err := landmark(target)
	if err != nil {
		return err
	}
	from, to := hand.Points[f], other.Points[t]
	*hand = detector.Translate(*hand, to.X-from.X, to.Y-from.Y)
	return nil
}
