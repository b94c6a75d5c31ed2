// Package safety turns scroll mode off when the pointer sits still too long,
// so a user who cannot click normally is never stuck in scroll mode.
package safety

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.aimuz.me/dragscroll/internal/types"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// Options configures a Monitor. Cursor and OnTimeout are required.
type Options struct {
	Cursor    func() (types.Point, error)
	OnTimeout func()

	Timeout   time.Duration
	Interval  time.Duration
	Clock     func() time.Time
	NewTicker func(time.Duration) (<-chan time.Time, func())
	Logger    *slog.Logger
}

// Monitor samples the cursor and fires OnTimeout once when it has not moved
// for Timeout.
type Monitor struct {
	cursor    func() (types.Point, error)
	onTimeout func()
	timeout   time.Duration
	interval  time.Duration
	clock     func() time.Time
	ticker    func(time.Duration) (<-chan time.Time, func())
	log       *slog.Logger

	mu       sync.Mutex
	last     types.Point
	lastMove time.Time
}

func New(opts Options) *Monitor {
	m := &Monitor{
		cursor:    opts.Cursor,
		onTimeout: opts.OnTimeout,
		timeout:   opts.Timeout,
		interval:  opts.Interval,
		clock:     opts.Clock,
		ticker:    opts.NewTicker,
		log:       opts.Logger,
	}
	if m.timeout <= 0 {
		m.timeout = DefaultTimeout
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.ticker == nil {
		m.ticker = func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		}
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Reset marks the pointer as just moved.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.lastMove = m.clock()
	m.mu.Unlock()
}

// Run samples until ctx is done or the timeout fires.
func (m *Monitor) Run(ctx context.Context) error {
	if p, err := m.cursor(); err == nil {
		m.mu.Lock()
		m.last = p
		m.mu.Unlock()
	}
	m.Reset()

	ticks, stop := m.ticker(m.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
			if m.sample() {
				m.log.Info("safety timeout", "idle", m.timeout)
				m.onTimeout()
				return nil
			}
		}
	}
}

// sample reports whether the idle timeout has elapsed.
func (m *Monitor) sample() bool {
	now := m.clock()
	p, err := m.cursor()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil && p != m.last {
		m.last = p
		m.lastMove = now
		return false
	}
	return now.Sub(m.lastMove) >= m.timeout
}
