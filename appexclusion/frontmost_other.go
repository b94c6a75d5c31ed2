//go:build !darwin

package appexclusion

// Frontmost returns ErrUnsupported on this platform.
func Frontmost() (App, error) {
	return App{}, ErrUnsupported
}
