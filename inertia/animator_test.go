package inertia

import (
	"math"
	"sync"
	"testing"
	"time"

	"go.aimuz.me/dragscroll/internal/types"
)

type recorder struct {
	mu     sync.Mutex
	events []types.ScrollEvent
}

func (r *recorder) PostScroll(e types.ScrollEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []types.ScrollEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.ScrollEvent(nil), r.events...)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualTicker never ticks; tests drive frames with Advance.
func manualTicker(time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

func newTestAnimator() (*Animator, *recorder, *fakeClock) {
	rec := &recorder{}
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := New(rec, Options{Clock: clk.now, NewTicker: manualTicker})
	return a, rec, clk
}

func countEnds(events []types.ScrollEvent) int {
	n := 0
	for _, e := range events {
		if e.Momentum == types.MomentumEnd {
			n++
		}
	}
	return n
}

func TestIntensityMapping(t *testing.T) {
	tests := []struct {
		intensity  float64
		wantTau    float64
		wantScale  float64
		wantNative float64
	}{
		{0, 0.120, 0.4, 0.25},
		{0.25, 0.260, 0.7, 0.625},
		{0.5, 0.400, 1.0, 1.0},
		{1, 0.900, 2.0, 4.0},
		{-1, 0.120, 0.4, 0.25},
		{3, 0.900, 2.0, 4.0},
	}
	for _, tt := range tests {
		if got := TauForIntensity(tt.intensity); math.Abs(got-tt.wantTau) > 1e-9 {
			t.Errorf("TauForIntensity(%v) = %v, want %v", tt.intensity, got, tt.wantTau)
		}
		if got := VelocityScale(tt.intensity); math.Abs(got-tt.wantScale) > 1e-9 {
			t.Errorf("VelocityScale(%v) = %v, want %v", tt.intensity, got, tt.wantScale)
		}
		if got := NativeVelocityScale(tt.intensity); math.Abs(got-tt.wantNative) > 1e-9 {
			t.Errorf("NativeVelocityScale(%v) = %v, want %v", tt.intensity, got, tt.wantNative)
		}
	}
}

func TestStartCoasting_NegligibleAmplitude(t *testing.T) {
	a, rec, _ := newTestAnimator()

	// 1 unit/s * 1.0 * 0.4s = 0.4 < threshold.
	if a.StartCoasting(types.Vector{X: 1, Y: 1}, types.AxisNone, 0.5) {
		t.Fatal("StartCoasting() = true, want false for negligible amplitude")
	}
	if a.IsCoasting() {
		t.Error("IsCoasting() = true, want false")
	}
	if n := len(rec.snapshot()); n != 0 {
		t.Errorf("posted %d events, want 0", n)
	}
}

func TestCoasting_NaturalDecay(t *testing.T) {
	a, rec, clk := newTestAnimator()

	if !a.StartCoasting(types.Vector{X: 0, Y: 1000}, types.AxisNone, 0.5) {
		t.Fatal("StartCoasting() = false")
	}

	frames := 0
	for a.IsCoasting() {
		clk.advance(DefaultFrameInterval)
		a.Advance()
		frames++
		if frames > 1000 {
			t.Fatal("coasting did not stop")
		}
	}

	events := rec.snapshot()
	if len(events) < 3 {
		t.Fatalf("got %d events, want at least begin, continue, end", len(events))
	}
	if events[0].Momentum != types.MomentumBegin {
		t.Errorf("first phase = %v, want begin", events[0].Momentum)
	}
	last := events[len(events)-1]
	if last.Momentum != types.MomentumEnd || last.DX != 0 || last.DY != 0 {
		t.Errorf("last event = %+v, want zero-delta end", last)
	}
	if n := countEnds(events); n != 1 {
		t.Errorf("end events = %d, want 1", n)
	}

	var sum int32
	for _, e := range events[:len(events)-1] {
		if !e.IsMomentum() || e.Phase != types.ScrollPhaseNone {
			t.Errorf("event %+v is not a pure momentum event", e)
		}
		if e.Momentum != types.MomentumBegin && e.Momentum != types.MomentumContinue {
			t.Errorf("unexpected phase %v mid-session", e.Momentum)
		}
		if e.DY < 0 {
			t.Errorf("DY = %d, want non-negative for positive velocity", e.DY)
		}
		if e.DX != 0 {
			t.Errorf("DX = %d, want 0", e.DX)
		}
		sum += e.DY
	}

	// amplitude = 1000 * 1.0 * 0.4
	if sum > 400 || sum < 395 {
		t.Errorf("total distance = %d, want close to 400", sum)
	}
}

func TestCoasting_AxisLockZeroesOtherAxis(t *testing.T) {
	a, rec, clk := newTestAnimator()
	a.StartCoasting(types.Vector{X: 800, Y: 600}, types.AxisHorizontal, 0.5)

	for i := 0; i < 20 && a.IsCoasting(); i++ {
		clk.advance(DefaultFrameInterval)
		a.Advance()
	}
	a.StopCoasting()

	var sumX int32
	for _, e := range rec.snapshot() {
		if e.DY != 0 {
			t.Fatalf("DY = %d with horizontal lock, want 0", e.DY)
		}
		sumX += e.DX
	}
	if sumX <= 0 {
		t.Errorf("horizontal distance = %d, want positive", sumX)
	}
}

func TestCoasting_NegativeVelocity(t *testing.T) {
	a, rec, clk := newTestAnimator()
	a.StartCoasting(types.Vector{Y: -2000}, types.AxisVertical, 0.5)

	for a.IsCoasting() {
		clk.advance(DefaultFrameInterval)
		a.Advance()
	}

	var sum int32
	for _, e := range rec.snapshot() {
		if e.DY > 0 {
			t.Fatalf("DY = %d, want non-positive", e.DY)
		}
		sum += e.DY
	}
	if sum < -800 || sum > -795 {
		t.Errorf("total distance = %d, want close to -800", sum)
	}
}

func TestRestartEmitsPriorEnd(t *testing.T) {
	a, rec, clk := newTestAnimator()

	a.StartCoasting(types.Vector{Y: 1000}, types.AxisVertical, 0.5)
	clk.advance(DefaultFrameInterval)
	a.Advance()
	before := len(rec.snapshot())

	if !a.StartCoasting(types.Vector{Y: 1500}, types.AxisVertical, 0.5) {
		t.Fatal("second StartCoasting() = false")
	}
	events := rec.snapshot()
	if len(events) != before+1 {
		t.Fatalf("got %d events after restart, want %d", len(events), before+1)
	}
	if events[before].Momentum != types.MomentumEnd {
		t.Errorf("event after restart = %v, want end", events[before].Momentum)
	}

	clk.advance(DefaultFrameInterval)
	a.Advance()
	events = rec.snapshot()
	if events[len(events)-1].Momentum != types.MomentumBegin {
		t.Errorf("new session first phase = %v, want begin", events[len(events)-1].Momentum)
	}
}

func TestStopCoasting_Idempotent(t *testing.T) {
	a, rec, _ := newTestAnimator()

	a.StopCoasting() // idle: nothing to end
	a.StartCoasting(types.Vector{Y: 1000}, types.AxisNone, 0.5)
	a.StopCoasting()
	a.StopCoasting()

	if n := countEnds(rec.snapshot()); n != 1 {
		t.Errorf("end events = %d, want 1", n)
	}
	if a.Advance() {
		t.Error("Advance() = true after stop")
	}
}

func TestFrameLoopReleasesTicker(t *testing.T) {
	rec := &recorder{}
	released := make(chan struct{})
	ticks := make(chan time.Time)
	a := New(rec, Options{
		NewTicker: func(time.Duration) (<-chan time.Time, func()) {
			return ticks, func() { close(released) }
		},
	})

	a.StartCoasting(types.Vector{Y: 1000}, types.AxisNone, 0.5)
	ticks <- time.Now()
	a.StopCoasting()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("frame clock was not released after stop")
	}
}
