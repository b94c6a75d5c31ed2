// Package gesture converts primary-button press/drag/release sequences into
// synthetic scroll gestures.
//
// The Engine decides per event whether the original is suppressed or
// forwarded. Clicks that never leave the dead zone are replayed as ordinary
// clicks; drags become pixel scroll events with axis lock; releases hand the
// measured velocity to an inertia animator.
package gesture

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.aimuz.me/dragscroll/inertia"
	"go.aimuz.me/dragscroll/internal/types"
	"go.aimuz.me/dragscroll/velocity"
)

const (
	// DeadZone is the press-origin radius inside which motion is click jitter.
	DeadZone = 8.0
	// AxisLockThreshold is the accumulated |dx|+|dy| at which the axis locks.
	AxisLockThreshold = 5.0

	primeFrames   = 3
	primeInterval = 0.008 // seconds per synthetic priming frame

	noticeBuffer = 64
)

// Emitter posts synthetic events to the OS.
type Emitter interface {
	PostScroll(types.ScrollEvent)
	PostPointer(types.PointerEvent)
}

// Coaster runs post-release momentum. *inertia.Animator implements it.
type Coaster interface {
	StartCoasting(v types.Vector, axis types.Axis, intensity float64) bool
	StopCoasting()
	IsCoasting() bool
}

// Exclusions answers hit tests against cached screen rectangles.
// *exclusion.Cache implements it.
type Exclusions interface {
	IsPointExcluded(types.Point) bool
	IsPointInOwnWindow(types.Point) bool
}

// Timer is a cancellable one-shot timer.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// State is the engine's gesture state.
type State int

const (
	StateIdle State = iota
	// StatePending: button down inside the dead zone, click or drag undecided.
	StatePending
	// StateDragging: motion is converted to scroll.
	StateDragging
	// StatePassthrough: hold timer expired, drags are forwarded until release.
	StatePassthrough
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDragging:
		return "dragging"
	case StatePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Options wires an Engine to its collaborators. Emitter is required.
type Options struct {
	Emitter    Emitter
	Coaster    Coaster
	Exclusions Exclusions

	// BypassAll forwards every press unmodified while it returns true
	// (frontmost application excluded).
	BypassAll func() bool
	// PassThrough forwards presses at points it accepts.
	PassThrough func(types.Point) bool

	Settings  Settings
	Clock     func() time.Time
	AfterFunc AfterFunc
	Logger    *slog.Logger
}

// Engine is the press/drag/release state machine. Its Handle methods run
// on the event tap thread; the hold timer and Stop may run elsewhere, so
// all state sits behind mu, which is never held across blocking work.
type Engine struct {
	out        Emitter
	coaster    Coaster
	exclusions Exclusions
	bypassAll  func() bool
	passThru   func(types.Point) bool
	replay     *ReplayEmitter
	clock      func() time.Time
	afterFunc  AfterFunc
	log        *slog.Logger
	notices    chan Notice

	mu       sync.Mutex
	settings Settings
	// active is the settings snapshot for the current episode.
	active  Settings
	state   State
	episode uuid.UUID

	passedThrough bool
	origin        types.Point
	last          types.Point
	clickState    int64

	axis        types.Axis
	accX, accY  float64
	remX, remY  float64
	firstScroll bool
	tracker     *velocity.Tracker

	holdTimer Timer
	holdGen   uint64
}

// NewEngine creates an Engine in the Idle state.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		out:        opts.Emitter,
		coaster:    opts.Coaster,
		exclusions: opts.Exclusions,
		bypassAll:  opts.BypassAll,
		passThru:   opts.PassThrough,
		clock:      opts.Clock,
		afterFunc:  opts.AfterFunc,
		log:        opts.Logger,
		notices:    make(chan Notice, noticeBuffer),
		settings:   opts.Settings.normalize(),
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.afterFunc == nil {
		e.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.replay = NewReplayEmitter(e.out, e.clock)
	e.tracker = velocity.New(e.clock)
	return e
}

// Notices delivers drag-state and position changes. Notices are dropped
// when the receiver falls behind.
func (e *Engine) Notices() <-chan Notice {
	return e.notices
}

// Apply replaces the engine settings. An episode in progress keeps the
// settings it started with; the change takes effect from the next press.
func (e *Engine) Apply(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s.normalize()
}

// Settings returns the active settings.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// State returns the current gesture state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ─────────────────────────────────────────────────────────────────────────────
// Press
// ─────────────────────────────────────────────────────────────────────────────

// HandlePress decides the fate of a primary-button press.
func (e *Engine) HandlePress(ev types.PointerEvent) types.Decision {
	// A re-click during coasting starts from a clean state.
	if e.coaster != nil && e.coaster.IsCoasting() {
		e.coaster.StopCoasting()
	}

	if ev.Synthetic {
		return types.Forward
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateIdle {
		// Missed release; close the old episode before starting a new one.
		e.abandonLocked()
	}

	if e.excludedLocked(ev.Point) || ev.Modifiers&types.Interpreted != 0 {
		e.passedThrough = true
		return types.Forward
	}
	e.passedThrough = false

	e.episode = uuid.New()
	e.origin = ev.Point
	e.last = ev.Point
	e.clickState = ev.ClickState
	e.active = e.settings
	e.resetAxisLocked()

	if !e.active.ClickThrough {
		e.state = StateDragging
		e.notify(Notice{Kind: DragStarted, Point: ev.Point})
		if e.debugEnabled() {
			e.log.Debug("drag started", "episode", e.episode, "mode", "legacy")
		}
		return types.Suppress
	}

	e.state = StatePending
	if e.active.HoldToPassthrough && ev.Button == 0 {
		e.armHoldLocked()
	}
	return types.Suppress
}

func (e *Engine) excludedLocked(p types.Point) bool {
	if e.bypassAll != nil && e.bypassAll() {
		return true
	}
	if e.passThru != nil && e.passThru(p) {
		return true
	}
	if e.exclusions != nil && (e.exclusions.IsPointInOwnWindow(p) || e.exclusions.IsPointExcluded(p)) {
		return true
	}
	return false
}

func (e *Engine) armHoldLocked() {
	e.holdGen++
	gen := e.holdGen
	e.holdTimer = e.afterFunc(e.active.HoldDelay, func() { e.holdExpired(gen) })
}

func (e *Engine) cancelHoldLocked() {
	if e.holdTimer != nil {
		e.holdTimer.Stop()
		e.holdTimer = nil
	}
	// A timer that already fired and is waiting on mu sees a stale generation.
	e.holdGen++
}

func (e *Engine) holdExpired(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if gen != e.holdGen || e.state != StatePending {
		return
	}
	e.holdTimer = nil
	e.state = StatePassthrough
	e.replay.Press(e.origin, e.clickState)
	if e.debugEnabled() {
		e.log.Debug("hold to passthrough", "episode", e.episode)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Drag
// ─────────────────────────────────────────────────────────────────────────────

// HandleDrag decides the fate of a primary-button drag.
func (e *Engine) HandleDrag(ev types.PointerEvent) types.Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.passedThrough {
		return types.Forward
	}

	switch e.state {
	case StatePassthrough:
		e.last = ev.Point
		return types.Forward

	case StatePending:
		if ev.Point.Distance(e.origin) <= DeadZone {
			return types.Suppress
		}
		e.cancelHoldLocked()
		e.state = StateDragging
		e.resetAxisLocked()
		// This event only establishes the moved-from point; the next drag
		// carries the first real delta.
		e.last = ev.Point
		e.notify(Notice{Kind: DragStarted, Point: ev.Point})
		if e.debugEnabled() {
			e.log.Debug("drag started", "episode", e.episode, "mode", "click-through")
		}
		return types.Suppress

	case StateDragging:
		e.scrollLocked(ev.Point)
		return types.Suppress

	default:
		return types.Forward
	}
}

func (e *Engine) scrollLocked(p types.Point) {
	d := p.Sub(e.last)
	e.last = p
	e.notify(Notice{Kind: DragMoved, Point: p})

	e.tracker.AddSample(d.X, d.Y)

	if e.axis == types.AxisNone {
		e.accX += abs(d.X)
		e.accY += abs(d.Y)
		if e.accX+e.accY >= AxisLockThreshold {
			e.axis = types.AxisVertical
			if e.accX > e.accY {
				e.axis = types.AxisHorizontal
			}
			if e.debugEnabled() {
				e.log.Debug("axis locked", "episode", e.episode, "axis", e.axis)
			}
		}
	}

	dir := e.active.direction()
	phase := types.ScrollPhaseChanged
	if e.firstScroll {
		phase = types.ScrollPhaseBegan
		e.firstScroll = false
	}
	fx, fy := d.X*dir+e.remX, d.Y*dir+e.remY
	dx, dy := int32(fx), int32(fy)
	e.remX, e.remY = fx-float64(dx), fy-float64(dy)
	e.postAxisLocked(dx, dy, phase)
}

// postAxisLocked posts a scroll gesture event restricted to the locked axis.
// Before the lock both axes are posted so early motion is not lost.
func (e *Engine) postAxisLocked(dx, dy int32, phase types.ScrollPhase) {
	switch e.axis {
	case types.AxisVertical:
		dx = 0
	case types.AxisHorizontal:
		dy = 0
	}
	e.out.PostScroll(types.ScrollEvent{DX: dx, DY: dy, Phase: phase})
}

// ─────────────────────────────────────────────────────────────────────────────
// Release
// ─────────────────────────────────────────────────────────────────────────────

// HandleRelease decides the fate of a primary-button release.
func (e *Engine) HandleRelease(ev types.PointerEvent) types.Decision {
	if ev.Synthetic {
		return types.Forward
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.passedThrough {
		e.passedThrough = false
		return types.Forward
	}

	switch e.state {
	case StatePassthrough:
		e.cancelHoldLocked()
		e.replay.Release(ev.Point, e.clickState)

	case StatePending:
		e.cancelHoldLocked()
		e.replay.Click(e.origin, e.clickState)

	case StateDragging:
		e.finishDragLocked()

	default:
		// No tracked press (e.g. the exclusion predicate changed
		// mid-gesture). Forward so the window server does not see an
		// orphaned press.
		return types.Forward
	}

	e.endEpisodeLocked()
	return types.Suppress
}

func (e *Engine) finishDragLocked() {
	s := e.active
	v, ok := e.tracker.Velocity()
	if s.Momentum && ok && e.coaster != nil {
		v = v.Scale(s.direction())
		e.primeLocked(v, inertia.NativeVelocityScale(s.Intensity))
		e.out.PostScroll(types.ScrollEvent{Phase: types.ScrollPhaseEnded})
		started := e.coaster.StartCoasting(v, e.axis, s.Intensity)
		if e.debugEnabled() {
			e.log.Debug("drag released", "episode", e.episode, "velocity", v, "coasting", started)
		}
		return
	}

	// Cancel any native momentum the consumer would otherwise start.
	e.out.PostScroll(types.ScrollEvent{Phase: types.ScrollPhaseEnded})
	e.out.PostScroll(types.ScrollEvent{Momentum: types.MomentumBegin})
	e.out.PostScroll(types.ScrollEvent{Momentum: types.MomentumEnd})
	if e.debugEnabled() {
		e.log.Debug("drag released", "episode", e.episode, "coasting", false)
	}
}

// primeLocked injects a short burst of velocity-scaled changes before scroll
// end, so a native momentum consumer sees the intended exit velocity.
func (e *Engine) primeLocked(v types.Vector, scale float64) {
	dx := int32(v.X * scale * primeInterval)
	dy := int32(v.Y * scale * primeInterval)
	for i := 0; i < primeFrames; i++ {
		e.postAxisLocked(dx, dy, types.ScrollPhaseChanged)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// Stop cancels timers and coasting and emits whatever terminal events an
// in-flight gesture still owes, leaving the engine Idle. A pending
// undecided press is dropped, not replayed.
func (e *Engine) Stop() {
	if e.coaster != nil {
		e.coaster.StopCoasting()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.abandonLocked()
	e.passedThrough = false
}

// abandonLocked closes the current episode without a release event.
func (e *Engine) abandonLocked() {
	switch e.state {
	case StateIdle:
		return
	case StateDragging:
		e.out.PostScroll(types.ScrollEvent{Phase: types.ScrollPhaseEnded})
	case StatePassthrough:
		e.replay.Release(e.last, e.clickState)
	}
	e.cancelHoldLocked()
	e.endEpisodeLocked()
}

func (e *Engine) endEpisodeLocked() {
	e.notify(Notice{Kind: DragEnded, Point: e.last})
	e.state = StateIdle
	e.cancelHoldLocked()
	e.resetAxisLocked()
}

func (e *Engine) resetAxisLocked() {
	e.axis = types.AxisNone
	e.accX = 0
	e.accY = 0
	e.remX = 0
	e.remY = 0
	e.firstScroll = true
	e.tracker.Reset()
}

func (e *Engine) notify(n Notice) {
	select {
	case e.notices <- n:
	default:
	}
}

// debugEnabled guards Debug lines on the tap thread, so their attributes
// are not built when Debug is off.
func (e *Engine) debugEnabled() bool {
	return e.log.Enabled(context.Background(), slog.LevelDebug)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
