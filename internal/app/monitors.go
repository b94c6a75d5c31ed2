package app

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Runner is a background loop that returns when ctx is done.
type Runner struct {
	Name string
	Run  func(ctx context.Context) error
}

// MonitorGroup runs the loops that only live while scroll mode is active.
type MonitorGroup struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// Start launches runners under one cancellable group. A runner that fails
// is logged; the others keep running.
func (mg *MonitorGroup) Start(parent context.Context, runners ...Runner) {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	if mg.group != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range runners {
		g.Go(func() error {
			if err := r.Run(ctx); err != nil {
				slog.Warn("monitor stopped", "monitor", r.Name, "error", err)
			}
			return nil
		})
	}
	mg.cancel = cancel
	mg.group = g
	slog.Debug("monitors started", "count", len(runners))
}

// Stop cancels the runners and waits for them to return.
func (mg *MonitorGroup) Stop() {
	mg.mu.Lock()
	defer mg.mu.Unlock()

	if mg.group == nil {
		return
	}
	mg.cancel()
	_ = mg.group.Wait()
	mg.cancel = nil
	mg.group = nil
	slog.Debug("monitors stopped")
}

// Running reports whether the group is started.
func (mg *MonitorGroup) Running() bool {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	return mg.group != nil
}
