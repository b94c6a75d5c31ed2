package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/wailsapp/wails/v3/pkg/application"
	"golang.org/x/sync/errgroup"

	"go.aimuz.me/dragscroll/appexclusion"
	"go.aimuz.me/dragscroll/config"
	"go.aimuz.me/dragscroll/eventtap"
	"go.aimuz.me/dragscroll/exclusion"
	"go.aimuz.me/dragscroll/gesture"
	"go.aimuz.me/dragscroll/hotkey"
	"go.aimuz.me/dragscroll/inertia"
	"go.aimuz.me/dragscroll/internal/logging"
	"go.aimuz.me/dragscroll/internal/types"
	"go.aimuz.me/dragscroll/permission"
	"go.aimuz.me/dragscroll/safety"
)

type tapController interface {
	Start() error
	Stop()
}

type hotkeyController interface {
	Start() error
	Stop()
	Rebind(keys []string) error
}

// Options configures a Service. Zero values use the platform defaults.
type Options struct {
	Version    string
	ConfigPath string
	LevelVar   *slog.LevelVar
}

// Service orchestrates scroll mode: it owns the engine and its
// collaborators and turns host inputs into effects via Transition.
type Service struct {
	version  string
	cfgPath  string
	levelVar *slog.LevelVar

	app      *application.App
	emitFunc func(name string, data any)
	onActive func(active bool)

	// mu serializes transitions and their effects.
	mu    sync.Mutex
	state State
	cfg   *config.Config

	engine     *gesture.Engine
	animator   *inertia.Animator
	tap        tapController
	exclusions *exclusion.Cache
	store      *appexclusion.Store
	apps       *appexclusion.Manager
	hotkey     hotkeyController

	cursor    func() (types.Point, error)
	isTrusted func(prompt bool) bool

	monitors MonitorGroup
	launched bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
	background *errgroup.Group
}

// New creates a new Service. Call Init() after the Wails app is created.
func New(opts Options) *Service {
	s := &Service{
		version:   opts.Version,
		cfgPath:   opts.ConfigPath,
		levelVar:  opts.LevelVar,
		cursor:    eventtap.CursorPosition,
		isTrusted: permission.IsTrusted,
	}
	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	return s
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init wires the engine and starts the background watchers.
func (s *Service) Init(app *application.App) {
	s.app = app
	if app != nil {
		s.emitFunc = func(name string, data any) { app.Event.Emit(name, data) }
	}

	s.cfg = s.loadConfig()
	s.state.SafetyMode = s.cfg.SafetyMode
	s.setupEngine()
	s.setupAppExclusion()
	s.setupHotkey()
	s.startBackground()
}

// OnScrollModeChange registers a callback for scroll mode changes, used by
// the tray to update its menu.
func (s *Service) OnScrollModeChange(fn func(active bool)) {
	s.onActive = fn
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	s.rootCancel()
	if s.background != nil {
		_ = s.background.Wait()
	}
	s.dispatch(SetActive{Active: false})
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("close exclusion store", "error", err)
		}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Setup
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) loadConfig() *config.Config {
	if s.cfgPath == "" {
		path, err := config.Path()
		if err != nil {
			slog.Error("get config path", "error", err)
			return config.Default()
		}
		s.cfgPath = path
	}
	cfg, err := config.LoadFrom(s.cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		return config.Default()
	}
	return cfg
}

func (s *Service) setupEngine() {
	poster := eventtap.Poster{}
	s.animator = inertia.New(poster, inertia.Options{})
	s.exclusions = exclusion.New(exclusion.WindowServer{}, exclusion.Options{})

	s.engine = gesture.NewEngine(gesture.Options{
		Emitter:    poster,
		Coaster:    s.animator,
		Exclusions: s.exclusions,
		BypassAll:  s.appExcluded,
		Settings:   s.cfg.GestureSettings(),
	})
	s.tap = eventtap.New(s.engine, slog.Default())
}

func (s *Service) setupAppExclusion() {
	dir, err := appexclusion.DefaultDir()
	if err != nil {
		slog.Error("get exclusion store dir", "error", err)
		return
	}
	store, err := appexclusion.Open(dir)
	if err != nil {
		slog.Error("open exclusion store", "error", err)
		return
	}
	apps, err := appexclusion.NewManager(store, appexclusion.Options{
		OnChange: func(excluded bool, app appexclusion.App) {
			s.emit(EventAppExcluded, AppExcluded{Excluded: excluded, App: app.Name, BundleID: app.BundleID})
		},
	})
	if err != nil {
		slog.Error("load exclusion list", "error", err)
		store.Close()
		return
	}
	s.store = store
	s.apps = apps
	slog.Info("exclusion store opened", "path", dir)
}

// takeLaunchActivation reports whether scroll mode should turn on for the
// first grant after launch.
func (s *Service) takeLaunchActivation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.launched {
		return false
	}
	s.launched = true
	return s.cfg.ScrollModeOnLaunch
}

func (s *Service) appExcluded() bool {
	return s.apps != nil && s.apps.Excluded()
}

func (s *Service) setupHotkey() {
	hk := hotkey.NewHotkeyManager(s.cfg.Hotkey, func() {
		s.dispatch(ToggleRequested{})
	})
	hk.SetStatusCallback(func(granted bool) {
		if !granted {
			slog.Warn("hotkey needs accessibility permission")
		}
	})
	s.hotkey = hk
}

func (s *Service) startBackground() {
	g, ctx := errgroup.WithContext(s.rootCtx)
	s.background = g

	poller := &permission.Poller{
		Check: func() bool { return s.isTrusted(false) },
		OnChange: func(granted bool) {
			s.emit(EventAccessibilityPerm, granted)
			s.dispatch(PermissionChanged{Granted: granted})
			if granted && s.takeLaunchActivation() {
				s.dispatch(SetActive{Active: true})
			}
		},
	}
	g.Go(func() error { return poller.Run(ctx) })

	w, err := config.NewWatcher(s.cfgPath)
	if err != nil {
		slog.Error("watch config", "error", err)
		return
	}
	w.OnChange = s.applyConfig
	w.OnError = func(err error) { slog.Warn("reload config", "error", err) }
	g.Go(func() error { return w.Run(ctx) })
}

// ─────────────────────────────────────────────────────────────────────────────
// Transitions
// ─────────────────────────────────────────────────────────────────────────────

// dispatch applies in and every follow-up input its effects produce.
func (s *Service) dispatch(in Input) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue := []Input{in}
	for len(queue) > 0 {
		in := queue[0]
		queue = queue[1:]

		next, effects := Transition(s.state, in)
		s.state = next
		for _, e := range effects {
			if follow := s.runLocked(e); follow != nil {
				// The follow-up transition undoes whatever this one started.
				queue = append(queue, follow)
				break
			}
		}
	}
}

func (s *Service) runLocked(e Effect) Input {
	switch e.Kind {
	case StartTap:
		s.engine.Apply(s.cfg.GestureSettings())
		if err := s.tap.Start(); err != nil {
			return TapFailed{Err: fmt.Errorf("start event tap: %w", err)}
		}
	case StopTap:
		s.tap.Stop()
		s.engine.Stop()
	case StartMonitors:
		s.monitors.Start(s.rootCtx, s.monitorRunners()...)
	case StopMonitors:
		s.monitors.Stop()
	case StartHotkey:
		if s.hotkey != nil {
			if err := s.hotkey.Start(); err != nil {
				slog.Error("start hotkey", "error", err)
			}
		}
	case StopHotkey:
		if s.hotkey != nil {
			s.hotkey.Stop()
		}
	case RequestPermission:
		slog.Info("requesting accessibility permission")
		s.isTrusted(true)
	case NotifyActive:
		slog.Info("scroll mode changed", "active", s.state.Active)
		s.emit(EventScrollMode, s.state.Active)
		if s.onActive != nil {
			s.onActive(s.state.Active)
		}
	case ReportError:
		slog.Error("scroll mode failed", "error", e.Err)
		s.emit(EventEngineError, e.Err.Error())
	}
	return nil
}

func (s *Service) monitorRunners() []Runner {
	runners := []Runner{
		{Name: "exclusion", Run: s.exclusions.Run},
	}
	if s.apps != nil {
		runners = append(runners, Runner{Name: "frontmost-app", Run: s.apps.Run})
	}

	var mon *safety.Monitor
	if s.state.SafetyMode {
		mon = safety.New(safety.Options{
			Cursor: s.cursor,
			// dispatch stops this monitor's group; it must not run on it.
			OnTimeout: func() { go s.dispatch(SafetyTimeout{}) },
		})
		runners = append(runners, Runner{Name: "safety", Run: mon.Run})
	}

	runners = append(runners, Runner{Name: "notices", Run: func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case n := <-s.engine.Notices():
				if mon != nil && n.Kind == gesture.DragMoved {
					mon.Reset()
				}
			}
		}
	}})
	return runners
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.emitFunc != nil {
		s.emitFunc(name, data)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Scroll Mode
// ─────────────────────────────────────────────────────────────────────────────

// ToggleScrollMode flips scroll mode, requesting permission if needed.
func (s *Service) ToggleScrollMode() {
	s.dispatch(ToggleRequested{})
}

// SetScrollMode turns scroll mode on or off.
func (s *Service) SetScrollMode(active bool) {
	s.dispatch(SetActive{Active: active})
}

// IsScrollModeActive reports whether drags are being converted.
func (s *Service) IsScrollModeActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Active
}

// GetAccessibilityPermission returns whether accessibility is enabled.
func (s *Service) GetAccessibilityPermission() bool {
	return s.isTrusted(false)
}

// RequestAccessibilityPermission shows the system permission prompt.
func (s *Service) RequestAccessibilityPermission() {
	s.isTrusted(true)
}

// ─────────────────────────────────────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────────────────────────────────────

// GetSettings returns a copy of the current configuration.
func (s *Service) GetSettings() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// UpdateSettings applies mutate to a copy of the configuration, saves it
// and pushes it to the running components.
func (s *Service) UpdateSettings(mutate func(*config.Config)) error {
	s.mu.Lock()
	next := *s.cfg
	next.Hotkey = slices.Clone(s.cfg.Hotkey)
	s.mu.Unlock()

	mutate(&next)
	next.Normalize()
	if err := next.SaveTo(s.cfgPath); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.applyConfig(&next)
	return nil
}

// applyConfig makes cfg the active configuration.
func (s *Service) applyConfig(cfg *config.Config) {
	s.mu.Lock()
	prev := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	s.engine.Apply(cfg.GestureSettings())

	if s.hotkey != nil && !slices.Equal(prev.Hotkey, cfg.Hotkey) {
		if err := s.hotkey.Rebind(cfg.Hotkey); err != nil {
			slog.Error("rebind hotkey", "error", err)
		}
	}
	if s.levelVar != nil && prev.LogLevel != cfg.LogLevel {
		if lvl, err := logging.ParseLevel(cfg.LogLevel); err == nil {
			s.levelVar.Set(lvl)
		} else {
			slog.Warn("apply log level", "error", err)
		}
	}
	s.dispatch(SettingsChanged{SafetyMode: cfg.SafetyMode})
	slog.Debug("settings applied")
}

// ─────────────────────────────────────────────────────────────────────────────
// App Exclusion
// ─────────────────────────────────────────────────────────────────────────────

var errNoStore = errors.New("exclusion store unavailable")

// ExcludeFrontmostApp adds the frontmost application to the exclusion list.
func (s *Service) ExcludeFrontmostApp() (appexclusion.App, error) {
	if s.apps == nil {
		return appexclusion.App{}, errNoStore
	}
	return s.apps.AddFrontmost()
}

// RemoveExcludedApp removes bundleID from the exclusion list.
func (s *Service) RemoveExcludedApp(bundleID string) error {
	if s.apps == nil {
		return errNoStore
	}
	return s.apps.Remove(bundleID)
}

// ClearExcludedApps empties the exclusion list.
func (s *Service) ClearExcludedApps() error {
	if s.apps == nil {
		return errNoStore
	}
	return s.apps.Clear()
}

// GetExcludedApps lists the excluded applications.
func (s *Service) GetExcludedApps() ([]appexclusion.Entry, error) {
	if s.apps == nil {
		return nil, errNoStore
	}
	return s.apps.List()
}
