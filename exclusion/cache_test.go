package exclusion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.aimuz.me/dragscroll/internal/types"
)

type fakeLister struct {
	mu      sync.Mutex
	windows []Window
	front   int
	err     error
}

func (f *fakeLister) Windows() ([]Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows, f.err
}

func (f *fakeLister) FrontmostPID() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.front, nil
}

const ownPID = 4242

var (
	keyboard = Window{Owner: AssistiveOwner, PID: 90, Layer: 101, Bounds: types.Rect{X: 0, Y: 600, Width: 800, Height: 300}}
	overlay  = Window{Owner: AssistiveOwner, PID: 90, Layer: 2000, Bounds: types.Rect{X: 0, Y: 0, Width: 50, Height: 50}}
	ownWin   = Window{Owner: "DragScroll", PID: ownPID, Layer: 0, Bounds: types.Rect{X: 100, Y: 100, Width: 200, Height: 200}}
	other    = Window{Owner: "Safari", PID: 77, Layer: 0, Bounds: types.Rect{X: 0, Y: 0, Width: 1000, Height: 1000}}
)

func TestRefreshHitTests(t *testing.T) {
	tests := []struct {
		name     string
		front    int
		p        types.Point
		excluded bool
		own      bool
	}{
		{"inside keyboard", 77, types.Point{X: 10, Y: 700}, true, false},
		{"keyboard bottom edge exclusive", 77, types.Point{X: 10, Y: 900}, false, false},
		{"system overlay ignored", 77, types.Point{X: 10, Y: 10}, false, false},
		{"own window while frontmost", ownPID, types.Point{X: 150, Y: 150}, false, true},
		{"own window while in background", 77, types.Point{X: 150, Y: 150}, false, false},
		{"ordinary window", 77, types.Point{X: 500, Y: 500}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLister{windows: []Window{keyboard, overlay, ownWin, other}, front: tt.front}
			c := New(l, Options{PID: ownPID})
			if err := c.Refresh(); err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			if got := c.IsPointExcluded(tt.p); got != tt.excluded {
				t.Errorf("IsPointExcluded(%v) = %v, want %v", tt.p, got, tt.excluded)
			}
			if got := c.IsPointInOwnWindow(tt.p); got != tt.own {
				t.Errorf("IsPointInOwnWindow(%v) = %v, want %v", tt.p, got, tt.own)
			}
		})
	}
}

func TestRefreshErrorKeepsSnapshot(t *testing.T) {
	l := &fakeLister{windows: []Window{keyboard}}
	c := New(l, Options{PID: ownPID})
	c.Refresh()

	l.err = errors.New("window server busy")
	if err := c.Refresh(); err == nil {
		t.Fatal("Refresh() error = nil, want error")
	}
	if !c.IsPointExcluded(types.Point{X: 10, Y: 700}) {
		t.Error("snapshot dropped after failed refresh")
	}
}

func TestEmptyCacheExcludesNothing(t *testing.T) {
	c := New(&fakeLister{}, Options{PID: ownPID})
	p := types.Point{X: 1, Y: 1}
	if c.IsPointExcluded(p) || c.IsPointInOwnWindow(p) {
		t.Error("fresh cache reports exclusions")
	}
}

func TestRunAdaptsInterval(t *testing.T) {
	l := &fakeLister{windows: []Window{other}}
	waits := make(chan time.Duration)
	ticks := make(chan time.Time)
	c := New(l, Options{
		PID: ownPID,
		After: func(d time.Duration) <-chan time.Time {
			waits <- d
			return ticks
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	if d := <-waits; d != SlowInterval {
		t.Errorf("interval without keyboard = %v, want %v", d, SlowInterval)
	}

	l.mu.Lock()
	l.windows = []Window{other, keyboard}
	l.mu.Unlock()
	ticks <- time.Time{}

	if d := <-waits; d != FastInterval {
		t.Errorf("interval with keyboard = %v, want %v", d, FastInterval)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if c.KeyboardVisible() {
		t.Error("snapshot not cleared after Run returned")
	}
}

func TestRunStopsOnUnsupported(t *testing.T) {
	c := New(&fakeLister{err: ErrUnsupported}, Options{PID: ownPID})
	if err := c.Run(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Run() = %v, want ErrUnsupported", err)
	}
}
