// Package eventtap installs the system-wide primary-button hook and posts
// synthetic scroll and pointer events.
//
// Only macOS is supported; other platforms build but Start returns
// ErrUnsupported.
package eventtap

import (
	"errors"
	"log/slog"
	"sync"

	"go.aimuz.me/dragscroll/internal/types"
)

// ReplayMarker is written to the user-data field of every event this
// process posts, so the tap can tell its own events from real input.
const ReplayMarker = 0x534D4D

var (
	ErrPermissionDenied = errors.New("eventtap: accessibility permission not granted")
	ErrUnsupported      = errors.New("eventtap: not supported on this platform")
	ErrRunning          = errors.New("eventtap: already running")
)

// Handler decides the fate of each primary-button event. It runs on the
// tap thread and must not block. *gesture.Engine implements it.
type Handler interface {
	HandlePress(types.PointerEvent) types.Decision
	HandleDrag(types.PointerEvent) types.Decision
	HandleRelease(types.PointerEvent) types.Decision
}

// Tap owns the installed hook. At most one Tap is active per process.
type Tap struct {
	h   Handler
	log *slog.Logger

	mu   sync.Mutex
	stop func()
}

// New creates a Tap that delivers events to h.
func New(h Handler, log *slog.Logger) *Tap {
	if log == nil {
		log = slog.Default()
	}
	return &Tap{h: h, log: log}
}

// Start installs the hook. It returns ErrPermissionDenied when the OS
// refuses to create it.
func (t *Tap) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return ErrRunning
	}
	stop, err := t.start()
	if err != nil {
		return err
	}
	t.stop = stop
	t.log.Info("event tap started")
	return nil
}

// Stop removes the hook. It is a no-op when not running.
func (t *Tap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop == nil {
		return
	}
	t.stop()
	t.stop = nil
	t.log.Info("event tap stopped")
}

// Running reports whether the hook is installed.
func (t *Tap) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// dispatch routes one event to the handler. A panicking handler forwards
// the event rather than leaving the pointer stuck.
func (t *Tap) dispatch(ev types.PointerEvent) (d types.Decision) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("event handler panic", "kind", ev.Kind, "panic", r)
			d = types.Forward
		}
	}()

	switch ev.Kind {
	case types.PointerPress:
		return t.h.HandlePress(ev)
	case types.PointerDrag:
		return t.h.HandleDrag(ev)
	case types.PointerRelease:
		return t.h.HandleRelease(ev)
	default:
		return types.Forward
	}
}

// CGEventFlags bits.
const (
	flagAlphaShift  = 0x00010000
	flagShift       = 0x00020000
	flagControl     = 0x00040000
	flagAlternate   = 0x00080000
	flagCommand     = 0x00100000
	flagSecondaryFn = 0x00800000
)

func modifiersFromFlags(flags uint64) types.Modifiers {
	var m types.Modifiers
	if flags&flagShift != 0 {
		m |= types.ModShift
	}
	if flags&flagControl != 0 {
		m |= types.ModControl
	}
	if flags&flagAlternate != 0 {
		m |= types.ModOption
	}
	if flags&flagCommand != 0 {
		m |= types.ModCommand
	}
	if flags&flagAlphaShift != 0 {
		m |= types.ModCapsLock
	}
	if flags&flagSecondaryFn != 0 {
		m |= types.ModFunction
	}
	return m
}
