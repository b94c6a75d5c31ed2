// Package exclusion keeps a snapshot of screen regions where presses must
// reach the OS untouched: the on-screen accessibility keyboard and this
// application's own windows while it is frontmost.
package exclusion

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"go.aimuz.me/dragscroll/internal/types"
)

const (
	// AssistiveOwner is the window owner of the macOS Accessibility Keyboard.
	AssistiveOwner = "AssistiveControl"
	// maxOverlayLayer excludes the cursor and other system overlays that
	// share the keyboard's owner.
	maxOverlayLayer = 1000

	FastInterval = 500 * time.Millisecond
	SlowInterval = 2 * time.Second
)

var ErrUnsupported = errors.New("exclusion: window listing not supported on this platform")

// Window is one on-screen window as reported by the window server.
type Window struct {
	Owner  string
	PID    int
	Layer  int
	Bounds types.Rect
}

// Lister reads the current window list and the frontmost application.
type Lister interface {
	Windows() ([]Window, error)
	FrontmostPID() (int, error)
}

type snapshot struct {
	keyboard []types.Rect
	own      []types.Rect
}

// Options configures a Cache.
type Options struct {
	// PID identifies this application's windows. Zero uses os.Getpid.
	PID    int
	Logger *slog.Logger
	// After replaces time.After in the refresh loop.
	After func(time.Duration) <-chan time.Time
}

// Cache publishes rectangle snapshots. Refresh builds a complete snapshot
// and swaps it in atomically; hit tests read whatever is published and
// never block.
type Cache struct {
	lister Lister
	pid    int
	log    *slog.Logger
	after  func(time.Duration) <-chan time.Time

	snap   atomic.Pointer[snapshot]
	failed atomic.Bool
}

// New creates a Cache with an empty snapshot.
func New(l Lister, opts Options) *Cache {
	c := &Cache{
		lister: l,
		pid:    opts.PID,
		log:    opts.Logger,
		after:  opts.After,
	}
	if c.pid == 0 {
		c.pid = os.Getpid()
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.after == nil {
		c.after = time.After
	}
	c.snap.Store(&snapshot{})
	return c
}

// IsPointExcluded reports whether p is over the accessibility keyboard.
func (c *Cache) IsPointExcluded(p types.Point) bool {
	return containsAny(c.snap.Load().keyboard, p)
}

// IsPointInOwnWindow reports whether p is over one of this application's
// windows while it is frontmost.
func (c *Cache) IsPointInOwnWindow(p types.Point) bool {
	return containsAny(c.snap.Load().own, p)
}

// KeyboardVisible reports whether the last refresh found the keyboard.
func (c *Cache) KeyboardVisible() bool {
	return len(c.snap.Load().keyboard) > 0
}

func containsAny(rects []types.Rect, p types.Point) bool {
	for _, r := range rects {
		if r.Contains(p) {
			return true
		}
	}
	return false
}

// Refresh rebuilds the snapshot. On a listing error the previous snapshot
// stays published.
func (c *Cache) Refresh() error {
	windows, err := c.lister.Windows()
	if err != nil {
		if !c.failed.Swap(true) {
			c.log.Warn("list windows", "error", err)
		}
		return err
	}
	c.failed.Store(false)

	front, err := c.lister.FrontmostPID()
	if err != nil {
		front = 0
	}

	next := &snapshot{
		keyboard: lo.FilterMap(windows, func(w Window, _ int) (types.Rect, bool) {
			return w.Bounds, w.Owner == AssistiveOwner && w.Layer < maxOverlayLayer && !w.Bounds.Empty()
		}),
	}
	if front == c.pid {
		next.own = lo.FilterMap(windows, func(w Window, _ int) (types.Rect, bool) {
			return w.Bounds, w.PID == c.pid && !w.Bounds.Empty()
		})
	}
	c.snap.Store(next)
	return nil
}

// Clear publishes an empty snapshot.
func (c *Cache) Clear() {
	c.snap.Store(&snapshot{})
}

// Run refreshes until ctx is done, faster while the keyboard is on screen.
// The snapshot is cleared on return.
func (c *Cache) Run(ctx context.Context) error {
	defer c.Clear()
	for {
		if err := c.Refresh(); errors.Is(err, ErrUnsupported) {
			return err
		}
		interval := SlowInterval
		if c.KeyboardVisible() {
			interval = FastInterval
		}
		select {
		case <-ctx.Done():
			return nil
		case <-c.after(interval):
		}
	}
}
