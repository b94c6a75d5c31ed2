// Package inertia drives post-release momentum scrolling.
//
// A coasting session follows amplitude * (1 - exp(-t/tau - tailAccel*t^2)),
// which is frame-rate independent and cuts off sharply instead of lingering
// at imperceptible speed.
package inertia

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/dragscroll/internal/types"
)

const (
	tauMin = 0.120
	tauMid = 0.400
	tauMax = 0.900

	scaleMin = 0.4
	scaleMax = 2.0

	// NativeVelocityScale range; wider because the native consumer
	// applies its own momentum curve on top.
	nativeScaleMin = 0.25
	nativeScaleMax = 4.0

	tailAccel = 1.5

	// StopThreshold is the remaining amplitude below which coasting ends.
	StopThreshold = 0.5

	// DefaultFrameInterval approximates a 60Hz display refresh.
	DefaultFrameInterval = 16667 * time.Microsecond
)

// Emitter receives momentum scroll events.
type Emitter interface {
	PostScroll(types.ScrollEvent)
}

// TickerFunc starts a frame clock. It returns the tick channel and a
// function that releases it.
type TickerFunc func(d time.Duration) (<-chan time.Time, func())

// Options configures an Animator.
type Options struct {
	Clock         func() time.Time
	FrameInterval time.Duration
	NewTicker     TickerFunc
	Logger        *slog.Logger
}

// Animator owns at most one coasting session at a time.
// StartCoasting and StopCoasting may be called from the event tap thread
// while frames render on the animator's own goroutine.
type Animator struct {
	out      Emitter
	clock    func() time.Time
	interval time.Duration
	ticker   TickerFunc
	log      *slog.Logger

	mu      sync.Mutex
	session *session
}

type session struct {
	id    uuid.UUID
	start time.Time
	tau   float64
	axis  types.Axis

	ampX, ampY   float64
	lastX, lastY float64
	remX, remY   float64
	first        bool

	done chan struct{}
}

// New creates an Animator that posts through out.
func New(out Emitter, opts Options) *Animator {
	a := &Animator{
		out:      out,
		clock:    opts.Clock,
		interval: opts.FrameInterval,
		ticker:   opts.NewTicker,
		log:      opts.Logger,
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.interval <= 0 {
		a.interval = DefaultFrameInterval
	}
	if a.ticker == nil {
		a.ticker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	return a
}

// TauForIntensity maps intensity in [0,1] to the decay time constant in seconds.
// 0.5 gives the baseline 0.4s.
func TauForIntensity(intensity float64) float64 {
	return lerp2(intensity, tauMin, tauMid, tauMax)
}

// VelocityScale maps intensity to the multiplier applied to the release
// velocity for the animator's own momentum events.
func VelocityScale(intensity float64) float64 {
	return lerp2(intensity, scaleMin, 1.0, scaleMax)
}

// NativeVelocityScale maps intensity to the multiplier used when priming a
// native momentum consumer before scroll end.
func NativeVelocityScale(intensity float64) float64 {
	return lerp2(intensity, nativeScaleMin, 1.0, nativeScaleMax)
}

// lerp2 interpolates [0,0.5] onto [lo,mid] and [0.5,1] onto [mid,hi].
func lerp2(t, lo, mid, hi float64) float64 {
	t = math.Min(math.Max(t, 0), 1)
	if t <= 0.5 {
		return lo + (mid-lo)*(t/0.5)
	}
	return mid + (hi-mid)*((t-0.5)/0.5)
}

// StartCoasting cancels any running session, then begins a new one from the
// release velocity. A locked axis zeroes the other axis. It reports whether a
// session started; negligible amplitudes start nothing.
func (a *Animator) StartCoasting(v types.Vector, axis types.Axis, intensity float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()

	tau := TauForIntensity(intensity)
	scale := VelocityScale(intensity)
	ampX := v.X * scale * tau
	ampY := v.Y * scale * tau
	switch axis {
	case types.AxisVertical:
		ampX = 0
	case types.AxisHorizontal:
		ampY = 0
	}
	if math.Abs(ampX) < StopThreshold && math.Abs(ampY) < StopThreshold {
		return false
	}

	s := &session{
		id:    uuid.New(),
		start: a.clock(),
		tau:   tau,
		axis:  axis,
		ampX:  ampX,
		ampY:  ampY,
		first: true,
		done:  make(chan struct{}),
	}
	a.session = s
	a.log.Debug("start coasting", "session", s.id, "amp_x", ampX, "amp_y", ampY, "tau", tau, "axis", axis)

	go a.run(s)
	return true
}

// StopCoasting ends the running session, posting its momentum-end event.
// It is a no-op when idle.
func (a *Animator) StopCoasting() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

// IsCoasting reports whether a session is running.
func (a *Animator) IsCoasting() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil
}

// Advance renders one frame of the running session at the current clock
// time and reports whether the session is still running afterwards. The
// frame loop calls it on every tick.
func (a *Animator) Advance() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return false
	}
	a.frameLocked(a.session, a.clock())
	return a.session != nil
}

func (a *Animator) run(s *session) {
	ticks, release := a.ticker(a.interval)
	defer release()

	for {
		select {
		case <-s.done:
			return
		case <-ticks:
			a.mu.Lock()
			if a.session != s {
				a.mu.Unlock()
				return
			}
			a.frameLocked(s, a.clock())
			a.mu.Unlock()
		}
	}
}

func (a *Animator) frameLocked(s *session, now time.Time) {
	t := now.Sub(s.start).Seconds()
	decay := math.Exp(-t/s.tau - tailAccel*t*t)

	posX := s.ampX * (1 - decay)
	posY := s.ampY * (1 - decay)
	dx := posX - s.lastX
	dy := posY - s.lastY
	s.lastX = posX
	s.lastY = posY

	if math.Abs(s.ampX*decay) < StopThreshold && math.Abs(s.ampY*decay) < StopThreshold {
		a.stopLocked()
		return
	}

	phase := types.MomentumContinue
	if s.first {
		phase = types.MomentumBegin
		s.first = false
	}

	s.remX += dx
	s.remY += dy
	outX := int32(s.remX)
	outY := int32(s.remY)
	s.remX -= float64(outX)
	s.remY -= float64(outY)

	a.out.PostScroll(types.ScrollEvent{DX: outX, DY: outY, Momentum: phase})
}

func (a *Animator) stopLocked() {
	s := a.session
	if s == nil {
		return
	}
	a.out.PostScroll(types.ScrollEvent{Momentum: types.MomentumEnd})
	close(s.done)
	a.session = nil
	a.log.Debug("stop coasting", "session", s.id, "elapsed", a.clock().Sub(s.start))
}
