// Package hotkey toggles scroll mode from a global key combination.
package hotkey

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.aimuz.me/dragscroll/permission"
)

// DefaultKeys is the out-of-box toggle.
var DefaultKeys = []string{"f6"}

// rebindQuiet swallows matches right after a rebind, so the key-up of the
// shortcut recorder does not toggle immediately.
const rebindQuiet = 500 * time.Millisecond

var ErrUnsupported = errors.New("hotkey: global hotkeys not supported on this platform")

// listener is the low-level global keyboard hook.
type listener interface {
	Listen(keys []string, cb func()) error
	Close()
}

// HotkeyManager owns the global toggle registration.
type HotkeyManager struct {
	onToggle func()
	listener listener
	trusted  func(prompt bool) bool
	clock    func() time.Time

	mu         sync.Mutex
	keys       []string
	running    bool
	onStatus   func(granted bool)
	quietUntil time.Time
}

// NewHotkeyManager creates a manager that calls onToggle when keys are
// pressed together. Empty keys use DefaultKeys.
func NewHotkeyManager(keys []string, onToggle func()) *HotkeyManager {
	return &HotkeyManager{
		onToggle: onToggle,
		listener: newListener(),
		trusted:  permission.IsTrusted,
		clock:    time.Now,
		keys:     normalizeKeys(keys),
	}
}

func normalizeKeys(keys []string) []string {
	var out []string
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultKeys...)
	}
	return out
}

// SetStatusCallback registers a callback for accessibility status, reported
// on every Start.
func (m *HotkeyManager) SetStatusCallback(cb func(granted bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = cb
}

// Keys returns the current combination.
func (m *HotkeyManager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.keys...)
}

// Start registers the hotkey. It returns permission.ErrNotTrusted when the
// process lacks accessibility permission.
func (m *HotkeyManager) Start() error {
	granted := m.trusted(false)

	m.mu.Lock()
	status := m.onStatus
	m.mu.Unlock()
	if status != nil {
		status(granted)
	}
	if !granted {
		return permission.ErrNotTrusted
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *HotkeyManager) startLocked() error {
	if m.running {
		return nil
	}
	if err := m.listener.Listen(m.keys, m.fire); err != nil {
		return err
	}
	m.running = true
	slog.Info("hotkey registered", "keys", strings.Join(m.keys, "+"))
	return nil
}

// Stop unregisters the hotkey.
func (m *HotkeyManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *HotkeyManager) stopLocked() {
	if !m.running {
		return
	}
	m.listener.Close()
	m.running = false
}

// Rebind replaces the combination, re-registering if running.
func (m *HotkeyManager) Rebind(keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.keys = normalizeKeys(keys)
	m.quietUntil = m.clock().Add(rebindQuiet)
	if !m.running {
		return nil
	}
	m.stopLocked()
	return m.startLocked()
}

func (m *HotkeyManager) fire() {
	m.mu.Lock()
	quiet := m.clock().Before(m.quietUntil)
	m.mu.Unlock()

	if quiet || m.onToggle == nil {
		return
	}
	m.onToggle()
}
