package appexclusion

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeFront struct {
	mu  sync.Mutex
	app App
	err error
}

func (f *fakeFront) get() (App, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.app, f.err
}

func (f *fakeFront) set(app App) {
	f.mu.Lock()
	f.app = app
	f.mu.Unlock()
}

type change struct {
	excluded bool
	app      string
}

func newTestManager(t *testing.T, front *fakeFront) (*Manager, *[]change) {
	t.Helper()
	var changes []change
	m, err := NewManager(newTestStore(t), Options{
		Frontmost: front.get,
		OnChange: func(excluded bool, app App) {
			changes = append(changes, change{excluded, app.Name})
		},
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return m, &changes
}

var (
	safari = App{BundleID: "com.apple.Safari", Name: "Safari"}
	figma  = App{BundleID: "com.figma.Desktop", Name: "Figma"}
)

func TestManagerAddRecheck(t *testing.T) {
	front := &fakeFront{app: figma}
	m, changes := newTestManager(t, front)

	if m.Excluded() {
		t.Fatal("Excluded() = true before any edit")
	}
	if err := m.Add("COM.FIGMA.DESKTOP", "Figma"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if !m.Excluded() {
		t.Error("Excluded() = false after adding frontmost app")
	}
	if !m.Contains("com.figma.desktop") {
		t.Error("Contains() = false after Add")
	}

	front.set(safari)
	m.Recheck()
	if m.Excluded() {
		t.Error("Excluded() = true after switching to a listed-out app")
	}

	// Same state again: no callback.
	m.Recheck()

	want := []change{{true, "Figma"}, {false, "Safari"}}
	if len(*changes) != len(want) {
		t.Fatalf("changes = %+v, want %+v", *changes, want)
	}
	for i := range want {
		if (*changes)[i] != want[i] {
			t.Errorf("changes[%d] = %+v, want %+v", i, (*changes)[i], want[i])
		}
	}
}

func TestManagerRemoveAndClear(t *testing.T) {
	front := &fakeFront{app: safari}
	m, _ := newTestManager(t, front)

	m.Add(safari.BundleID, safari.Name)
	m.Add(figma.BundleID, figma.Name)
	if err := m.Remove(safari.BundleID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if m.Excluded() {
		t.Error("Excluded() = true after removing frontmost app")
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	list, _ := m.List()
	if len(list) != 0 || m.Contains(figma.BundleID) {
		t.Errorf("List() = %+v after Clear, want empty", list)
	}
}

func TestManagerAddFrontmost(t *testing.T) {
	front := &fakeFront{app: figma}
	m, _ := newTestManager(t, front)

	app, err := m.AddFrontmost()
	if err != nil {
		t.Fatalf("AddFrontmost() error = %v", err)
	}
	if app != figma || !m.Excluded() {
		t.Errorf("AddFrontmost() = %+v, excluded %v; want Figma, true", app, m.Excluded())
	}

	front.set(App{Name: "loginwindow"})
	if _, err := m.AddFrontmost(); !errors.Is(err, ErrEmptyID) {
		t.Errorf("AddFrontmost() without bundle id = %v, want ErrEmptyID", err)
	}
}

func TestManagerPersistsAcrossReload(t *testing.T) {
	store := newTestStore(t)
	store.Add(safari.BundleID, safari.Name)

	m, err := NewManager(store, Options{Frontmost: (&fakeFront{app: safari}).get})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	m.Recheck()
	if !m.Excluded() {
		t.Error("Excluded() = false for an app stored before NewManager")
	}
}

func TestManagerRunClearsOnExit(t *testing.T) {
	front := &fakeFront{app: safari}
	ticks := make(chan time.Time)
	polled := make(chan struct{}, 8)

	var changes []change
	store := newTestStore(t)
	store.Add(safari.BundleID, "")
	m, _ := NewManager(store, Options{
		Frontmost: front.get,
		After: func(time.Duration) <-chan time.Time {
			polled <- struct{}{}
			return ticks
		},
		OnChange: func(excluded bool, app App) {
			changes = append(changes, change{excluded, app.Name})
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	<-polled
	if !m.Excluded() {
		t.Error("Excluded() = false after first poll")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v", err)
	}
	if m.Excluded() {
		t.Error("Excluded() = true after Run returned")
	}
	if len(changes) != 2 || changes[1].excluded {
		t.Errorf("changes = %+v, want on then off", changes)
	}
}

func TestManagerRunUnsupported(t *testing.T) {
	m, _ := newTestManager(t, &fakeFront{err: ErrUnsupported})
	if err := m.Run(context.Background()); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Run() = %v, want ErrUnsupported", err)
	}
}
