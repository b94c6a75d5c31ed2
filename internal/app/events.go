// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	EventScrollMode        = "scroll-mode"
	EventAccessibilityPerm = "accessibility-permission"
	EventAppExcluded       = "app-excluded"
	EventEngineError       = "engine-error"
)

// AppExcluded is emitted when the frontmost application enters or leaves
// the exclusion list.
type AppExcluded struct {
	Excluded bool   `json:"excluded"`
	App      string `json:"app"`
	BundleID string `json:"bundle_id"`
}
