package main

import (
	"log/slog"
	"sync"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/dragscroll/config"
	"go.aimuz.me/dragscroll/internal/app"
)

const (
	labelActive   = "⇅ On"
	labelInactive = "⇅"
)

// tray owns the status item. The menu is rebuilt from service state on
// every change so checkmarks never drift.
type tray struct {
	app  *application.App
	svc  *app.Service
	item *application.SystemTray

	mu sync.Mutex
}

func newTray(a *application.App, svc *app.Service) *tray {
	return &tray{app: a, svc: svc, item: a.SystemTray.New()}
}

func (t *tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	active := t.svc.IsScrollModeActive()
	if active {
		t.item.SetLabel(labelActive)
	} else {
		t.item.SetLabel(labelInactive)
	}
	t.item.SetMenu(t.buildMenu(active))
}

func (t *tray) buildMenu(active bool) *application.Menu {
	cfg := t.svc.GetSettings()
	menu := t.app.NewMenu()

	toggle := "Enable Scroll Mode"
	if active {
		toggle = "Disable Scroll Mode"
	}
	menu.Add(toggle).OnClick(func(*application.Context) {
		go t.svc.ToggleScrollMode()
	})
	if !t.svc.GetAccessibilityPermission() {
		menu.Add("Grant Accessibility Permission…").OnClick(func(*application.Context) {
			t.svc.RequestAccessibilityPermission()
		})
	}

	menu.AddSeparator()
	t.addSetting(menu, "Click Through", cfg.ClickThrough, func(c *config.Config, v bool) { c.ClickThrough = v })
	t.addSetting(menu, "Hold to Pass Through", cfg.HoldToPassthrough, func(c *config.Config, v bool) { c.HoldToPassthrough = v })
	t.addSetting(menu, "Momentum", cfg.Momentum, func(c *config.Config, v bool) { c.Momentum = v })
	t.addSetting(menu, "Invert Direction", cfg.InvertScroll, func(c *config.Config, v bool) { c.InvertScroll = v })
	t.addSetting(menu, "Safety Timeout", cfg.SafetyMode, func(c *config.Config, v bool) { c.SafetyMode = v })
	t.addSetting(menu, "Scroll Mode on Launch", cfg.ScrollModeOnLaunch, func(c *config.Config, v bool) { c.ScrollModeOnLaunch = v })

	intensity := menu.AddSubmenu("Momentum Intensity")
	for _, p := range []struct {
		label string
		value float64
	}{{"Low", 0.25}, {"Normal", 0.5}, {"High", 0.75}, {"Maximum", 1}} {
		intensity.AddRadio(p.label, cfg.MomentumIntensity == p.value).OnClick(func(*application.Context) {
			t.update(func(c *config.Config) { c.MomentumIntensity = p.value })
		})
	}

	menu.AddSeparator()
	menu.Add("Exclude Current App").OnClick(func(*application.Context) {
		go func() {
			excluded, err := t.svc.ExcludeFrontmostApp()
			if err != nil {
				slog.Error("exclude frontmost app", "error", err)
				return
			}
			slog.Info("app excluded", "bundle_id", excluded.BundleID)
			t.refresh()
		}()
	})
	t.addExcludedApps(menu.AddSubmenu("Excluded Apps"))

	menu.AddSeparator()
	menu.Add("DragScroll " + t.svc.GetVersion())
	menu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(*application.Context) {
			t.svc.Shutdown()
			t.app.Quit()
		})
	return menu
}

func (t *tray) addSetting(menu *application.Menu, label string, checked bool, set func(*config.Config, bool)) {
	menu.AddCheckbox(label, checked).OnClick(func(*application.Context) {
		t.update(func(c *config.Config) { set(c, !checked) })
	})
}

func (t *tray) addExcludedApps(sub *application.Menu) {
	entries, err := t.svc.GetExcludedApps()
	if err != nil {
		sub.Add("Unavailable")
		return
	}
	if len(entries) == 0 {
		sub.Add("None")
		return
	}
	for _, e := range entries {
		sub.Add("Remove " + e.Name).OnClick(func(*application.Context) {
			go func() {
				if err := t.svc.RemoveExcludedApp(e.BundleID); err != nil {
					slog.Error("remove excluded app", "bundle_id", e.BundleID, "error", err)
				}
				t.refresh()
			}()
		})
	}
	sub.AddSeparator()
	sub.Add("Clear All").OnClick(func(*application.Context) {
		go func() {
			if err := t.svc.ClearExcludedApps(); err != nil {
				slog.Error("clear excluded apps", "error", err)
			}
			t.refresh()
		}()
	})
}

func (t *tray) update(mutate func(*config.Config)) {
	go func() {
		if err := t.svc.UpdateSettings(mutate); err != nil {
			slog.Error("update settings", "error", err)
		}
		t.refresh()
	}()
}
