package appexclusion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is how often the frontmost application is polled.
const DefaultInterval = 500 * time.Millisecond

// App identifies a running application.
type App struct {
	BundleID string
	Name     string
}

// FrontmostFunc reports the frontmost application.
type FrontmostFunc func() (App, error)

// Options configures a Manager.
type Options struct {
	// Frontmost defaults to the platform lookup.
	Frontmost FrontmostFunc
	Interval  time.Duration
	After     func(time.Duration) <-chan time.Time
	Logger    *slog.Logger

	// OnChange fires when the excluded state flips. It runs on the
	// polling goroutine or the caller of a list edit.
	OnChange func(excluded bool, app App)
}

// Manager tracks whether the frontmost application is excluded. Excluded
// is a lock-free read for the event tap thread.
type Manager struct {
	store     *Store
	frontmost FrontmostFunc
	interval  time.Duration
	after     func(time.Duration) <-chan time.Time
	log       *slog.Logger
	onChange  func(bool, App)

	excluded atomic.Bool

	mu   sync.Mutex
	ids  map[string]struct{}
	last App
}

// NewManager loads the persisted list from store.
func NewManager(store *Store, opts Options) (*Manager, error) {
	m := &Manager{
		store:     store,
		frontmost: opts.Frontmost,
		interval:  opts.Interval,
		after:     opts.After,
		log:       opts.Logger,
		onChange:  opts.OnChange,
	}
	if m.frontmost == nil {
		m.frontmost = Frontmost
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.after == nil {
		m.after = time.After
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	if err := m.reload(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) reload() error {
	entries, err := m.store.List()
	if err != nil {
		return err
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[e.BundleID] = struct{}{}
	}
	m.mu.Lock()
	m.ids = ids
	m.mu.Unlock()
	return nil
}

// Excluded reports whether the frontmost application is on the list.
func (m *Manager) Excluded() bool {
	return m.excluded.Load()
}

// Add excludes id and re-evaluates the frontmost application.
func (m *Manager) Add(id, name string) error {
	if err := m.store.Add(id, name); err != nil {
		return err
	}
	return m.edited()
}

// AddFrontmost excludes whatever application is frontmost and returns it.
func (m *Manager) AddFrontmost() (App, error) {
	app, err := m.frontmost()
	if err != nil {
		return App{}, err
	}
	if app.BundleID == "" {
		return App{}, ErrEmptyID
	}
	return app, m.Add(app.BundleID, app.Name)
}

// Remove drops id from the list.
func (m *Manager) Remove(id string) error {
	if err := m.store.Remove(id); err != nil {
		return err
	}
	return m.edited()
}

// Clear empties the list.
func (m *Manager) Clear() error {
	if err := m.store.Clear(); err != nil {
		return err
	}
	return m.edited()
}

// List returns the excluded applications.
func (m *Manager) List() ([]Entry, error) {
	return m.store.List()
}

// Contains reports whether id is on the list.
func (m *Manager) Contains(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[Fold(id)]
	return ok
}

func (m *Manager) edited() error {
	if err := m.reload(); err != nil {
		return err
	}
	m.Recheck()
	return nil
}

// Recheck re-evaluates the frontmost application immediately.
func (m *Manager) Recheck() {
	app, err := m.frontmost()
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			m.log.Debug("query frontmost app", "error", err)
		}
		return
	}
	m.evaluate(app)
}

func (m *Manager) evaluate(app App) {
	m.mu.Lock()
	_, excluded := m.ids[Fold(app.BundleID)]
	m.last = app
	m.mu.Unlock()

	if m.excluded.Swap(excluded) == excluded {
		return
	}
	m.log.Info("app exclusion changed", "excluded", excluded, "app", app.Name, "bundle_id", app.BundleID)
	if m.onChange != nil {
		m.onChange(excluded, app)
	}
}

// Run polls the frontmost application until ctx is done. The excluded flag
// is cleared on return so a stopped manager never blocks scrolling.
func (m *Manager) Run(ctx context.Context) error {
	defer func() {
		if m.excluded.Swap(false) && m.onChange != nil {
			m.mu.Lock()
			last := m.last
			m.mu.Unlock()
			m.onChange(false, last)
		}
	}()

	for {
		app, err := m.frontmost()
		switch {
		case errors.Is(err, ErrUnsupported):
			return err
		case err != nil:
			m.log.Debug("query frontmost app", "error", err)
		default:
			m.evaluate(app)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-m.after(m.interval):
		}
	}
}
