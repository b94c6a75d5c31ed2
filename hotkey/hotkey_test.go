package hotkey

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.aimuz.me/dragscroll/permission"
)

type fakeListener struct {
	keys   []string
	cb     func()
	listen int
	closed int
}

func (f *fakeListener) Listen(keys []string, cb func()) error {
	f.keys = keys
	f.cb = cb
	f.listen++
	return nil
}

func (f *fakeListener) Close() { f.closed++ }

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestManager(trusted bool) (*HotkeyManager, *fakeListener, *testClock, *int) {
	fl := &fakeListener{}
	clk := &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	toggles := new(int)
	m := NewHotkeyManager(nil, func() { *toggles++ })
	m.listener = fl
	m.trusted = func(bool) bool { return trusted }
	m.clock = clk.now
	return m, fl, clk, toggles
}

func TestNormalizeKeys(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"f6"}},
		{[]string{" ", ""}, []string{"f6"}},
		{[]string{"Cmd", " Shift ", "S"}, []string{"cmd", "shift", "s"}},
	}
	for _, tt := range tests {
		if got := normalizeKeys(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("normalizeKeys(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStartWithoutPermission(t *testing.T) {
	m, fl, _, _ := newTestManager(false)
	var status []bool
	m.SetStatusCallback(func(granted bool) { status = append(status, granted) })

	if err := m.Start(); !errors.Is(err, permission.ErrNotTrusted) {
		t.Errorf("Start() = %v, want ErrNotTrusted", err)
	}
	if fl.listen != 0 {
		t.Errorf("Listen called %d times, want 0", fl.listen)
	}
	if !reflect.DeepEqual(status, []bool{false}) {
		t.Errorf("status = %v, want [false]", status)
	}
}

func TestStartAndToggle(t *testing.T) {
	m, fl, _, toggles := newTestManager(true)
	if err := m.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !reflect.DeepEqual(fl.keys, []string{"f6"}) {
		t.Errorf("registered %q, want [f6]", fl.keys)
	}
	m.Start() // already running
	if fl.listen != 1 {
		t.Errorf("Listen called %d times, want 1", fl.listen)
	}

	fl.cb()
	if *toggles != 1 {
		t.Errorf("toggles = %d, want 1", *toggles)
	}

	m.Stop()
	m.Stop()
	if fl.closed != 1 {
		t.Errorf("Close called %d times, want 1", fl.closed)
	}
}

func TestRebindSuppressesImmediateMatch(t *testing.T) {
	m, fl, clk, toggles := newTestManager(true)
	m.Start()

	if err := m.Rebind([]string{"ctrl", "f7"}); err != nil {
		t.Fatalf("Rebind() error = %v", err)
	}
	if !reflect.DeepEqual(fl.keys, []string{"ctrl", "f7"}) {
		t.Errorf("registered %q after rebind", fl.keys)
	}
	if fl.closed != 1 || fl.listen != 2 {
		t.Errorf("closed=%d listen=%d, want 1 and 2", fl.closed, fl.listen)
	}

	clk.t = clk.t.Add(100 * time.Millisecond)
	fl.cb()
	if *toggles != 0 {
		t.Errorf("toggles = %d inside quiet window, want 0", *toggles)
	}

	clk.t = clk.t.Add(time.Second)
	fl.cb()
	if *toggles != 1 {
		t.Errorf("toggles = %d after quiet window, want 1", *toggles)
	}
}

func TestRebindWhileStopped(t *testing.T) {
	m, fl, _, _ := newTestManager(true)
	m.Rebind([]string{"F8"})
	if fl.listen != 0 {
		t.Errorf("Listen called %d times while stopped, want 0", fl.listen)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"f8"}) {
		t.Errorf("Keys() = %q, want [f8]", got)
	}
}
