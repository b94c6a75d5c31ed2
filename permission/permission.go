// Package permission checks and watches the accessibility trust the event
// tap needs.
package permission

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrNotTrusted = errors.New("accessibility permission not granted")

// DefaultInterval is how often Poller re-checks the trust state.
const DefaultInterval = time.Second

// Poller reports trust transitions. OnChange fires for the first
// observation and then on every change.
type Poller struct {
	Check    func() bool
	Interval time.Duration
	After    func(time.Duration) <-chan time.Time
	OnChange func(granted bool)
	Logger   *slog.Logger
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	check := p.Check
	if check == nil {
		check = func() bool { return IsTrusted(false) }
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	after := p.After
	if after == nil {
		after = time.After
	}
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		known bool
		last  bool
	)
	for {
		granted := check()
		if !known || granted != last {
			known = true
			last = granted
			log.Info("accessibility permission", "granted", granted)
			if p.OnChange != nil {
				p.OnChange(granted)
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-after(interval):
		}
	}
}
