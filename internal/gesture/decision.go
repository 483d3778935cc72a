package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/geometry"
)

// Kind identifies a discrete gesture event.
type Kind string

const (
	KindNone         Kind = ""
	KindClick        Kind = "click"
	KindDoubleClick  Kind = "double_click"
	KindCopy         Kind = "copy"
	KindPaste        Kind = "paste"
	KindScrollUp     Kind = "scroll_up"
	KindScrollDown   Kind = "scroll_down"
	KindDesktopLeft  Kind = "desktop_left"
	KindDesktopRight Kind = "desktop_right"
	KindDragStart    Kind = "drag_start"
	KindDragEnd      Kind = "drag_end"
)

// Hand returns the hand label an event kind belongs to. Drag uses both hands.
func (k Kind) Hand() string {
	switch k {
	case KindClick, KindDoubleClick, KindCopy, KindPaste:
		return detector.HandLeft
	case KindScrollUp, KindScrollDown, KindDesktopLeft, KindDesktopRight:
		return detector.HandRight
	case KindDragStart, KindDragEnd:
		return "Both"
	default:
		return ""
	}
}

// Decision is the prioritized, mutually exclusive outcome of one frame.
type Decision struct {
	// Drag is KindDragStart, KindDragEnd or KindNone.
	Drag Kind
	// Right is a desktop switch or a confirmed scroll direction.
	Right Kind
	// Left is a click, double click, copy or paste.
	Left Kind
	// Move reports whether Pointer should drive the cursor this frame.
	Move    bool
	Pointer geometry.Point
}

// Events lists the discrete events of the decision in dispatch order.
func (d Decision) Events() []Kind {
	var kinds []Kind
	for _, k := range []Kind{d.Drag, d.Right, d.Left} {
		if k != KindNone {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Event is a fired gesture as published to listeners.
type Event struct {
	Kind      Kind      `json:"kind"`
	Hand      string    `json:"hand"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Timestamp time.Time `json:"timestamp"`
}
