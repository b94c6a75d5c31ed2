// Package types provides shared type definitions for the application.
package types

import (
	"math"
	"time"
)

// Point is a screen-space position in global display coordinates
// (origin at the top-left of the primary display, y grows downward).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned screen rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive, matching CGRectContainsPoint.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Vector is a 2D velocity in distance units per second.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Len returns the magnitude of v.
func (v Vector) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale returns v multiplied by k.
func (v Vector) Scale(k float64) Vector {
	return Vector{X: v.X * k, Y: v.Y * k}
}

// Axis is the dominant direction of a drag. AxisNone means not yet locked.
type Axis int

const (
	AxisNone Axis = iota
	AxisVertical
	AxisHorizontal
)

func (a Axis) String() string {
	switch a {
	case AxisVertical:
		return "vertical"
	case AxisHorizontal:
		return "horizontal"
	default:
		return "none"
	}
}

// Modifiers is the set of modifier keys held during a pointer event.
type Modifiers uint32

const (
	ModShift Modifiers = 1 << iota
	ModControl
	ModOption
	ModCommand
	ModCapsLock
	ModFunction
)

// Interpreted are the modifiers that make a press pass through unmodified.
const Interpreted = ModShift | ModControl | ModOption | ModCommand

// PointerKind identifies one of the three primary-button event kinds.
type PointerKind int

const (
	PointerPress PointerKind = iota + 1
	PointerDrag
	PointerRelease
)

func (k PointerKind) String() string {
	switch k {
	case PointerPress:
		return "press"
	case PointerDrag:
		return "drag"
	case PointerRelease:
		return "release"
	default:
		return "unknown"
	}
}

// PointerEvent is a primary-button event delivered by the event tap or
// synthesized for replay.
type PointerEvent struct {
	Kind      PointerKind
	Point     Point
	Time      time.Time
	Modifiers Modifiers
	// ClickState is the OS click-grouping counter (1 single, 2 double, ...).
	ClickState int64
	// Button is the hardware button number; 0 is the primary button.
	Button int
	// Synthetic is set on events the engine itself posted.
	Synthetic bool
}

// Decision is the verdict returned to the event tap for one event.
type Decision int

const (
	Forward Decision = iota
	Suppress
)

func (d Decision) String() string {
	if d == Suppress {
		return "suppress"
	}
	return "forward"
}

// ScrollPhase is the gesture phase of a synthetic scroll event.
// Values match kCGScrollPhase*.
type ScrollPhase int

const (
	ScrollPhaseNone    ScrollPhase = 0
	ScrollPhaseBegan   ScrollPhase = 1
	ScrollPhaseChanged ScrollPhase = 2
	ScrollPhaseEnded   ScrollPhase = 4
)

// MomentumPhase is the momentum phase of a synthetic scroll event.
// Values match kCGMomentumScrollPhase*.
type MomentumPhase int

const (
	MomentumNone     MomentumPhase = 0
	MomentumBegin    MomentumPhase = 1
	MomentumContinue MomentumPhase = 2
	MomentumEnd      MomentumPhase = 3
)

// ScrollEvent is a synthetic pixel scroll event. During momentum Phase is
// ScrollPhaseNone and Momentum carries the state.
type ScrollEvent struct {
	DX       int32
	DY       int32
	Phase    ScrollPhase
	Momentum MomentumPhase
}

// IsMomentum reports whether e belongs to a momentum sequence.
func (e ScrollEvent) IsMomentum() bool {
	return e.Momentum != MomentumNone
}
