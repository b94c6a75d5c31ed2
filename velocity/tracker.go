// Package velocity estimates pointer release velocity from recent drag deltas.
package velocity

import (
	"time"

	"go.aimuz.me/dragscroll/internal/types"
)

const (
	maxSamples  = 10
	window      = 80 * time.Millisecond
	minTimeSpan = 5 * time.Millisecond

	// MinSpeed is the slowest release, in units per second, that produces a velocity.
	MinSpeed = 50.0
	// MaxSpeed caps the magnitude of a computed velocity.
	MaxSpeed = 8000.0
)

// Sample is a single drag delta recorded at a point in time.
type Sample struct {
	Time time.Time
	DX   float64
	DY   float64
}

// Tracker keeps a bounded ring of recent samples.
// It is not safe for concurrent use; the gesture engine owns it.
type Tracker struct {
	now     func() time.Time
	samples [maxSamples]Sample
	head    int // index of the oldest sample
	n       int
}

// New creates a Tracker. A nil clock uses time.Now.
func New(clock func() time.Time) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{now: clock}
}

// AddSample records a delta at the current clock time, evicting the oldest
// sample once the ring holds maxSamples.
func (t *Tracker) AddSample(dx, dy float64) {
	s := Sample{Time: t.now(), DX: dx, DY: dy}
	if t.n < maxSamples {
		t.samples[(t.head+t.n)%maxSamples] = s
		t.n++
		return
	}
	t.samples[t.head] = s
	t.head = (t.head + 1) % maxSamples
}

// Reset clears all samples.
func (t *Tracker) Reset() {
	t.head = 0
	t.n = 0
}

// Len returns the number of retained samples.
func (t *Tracker) Len() int {
	return t.n
}

// Velocity averages the samples inside the trailing window.
//
// It returns false when fewer than two samples are in the window, when they
// span less than 5ms (the user paused before lifting), or when the speed is
// below MinSpeed. The magnitude is capped at MaxSpeed.
func (t *Tracker) Velocity() (types.Vector, bool) {
	cutoff := t.now().Add(-window)

	var (
		first, last time.Time
		count       int
		sumX, sumY  float64
	)
	for i := 0; i < t.n; i++ {
		s := t.samples[(t.head+i)%maxSamples]
		if s.Time.Before(cutoff) {
			continue
		}
		if count == 0 {
			first = s.Time
		}
		last = s.Time
		sumX += s.DX
		sumY += s.DY
		count++
	}
	if count < 2 {
		return types.Vector{}, false
	}

	dt := last.Sub(first)
	if dt < minTimeSpan {
		return types.Vector{}, false
	}

	sec := dt.Seconds()
	v := types.Vector{X: sumX / sec, Y: sumY / sec}
	speed := v.Len()
	if speed < MinSpeed {
		return types.Vector{}, false
	}
	if speed > MaxSpeed {
		v = v.Scale(MaxSpeed / speed)
	}
	return v, true
}
