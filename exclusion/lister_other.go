//go:build !darwin

package exclusion

// WindowServer is unavailable on this platform.
type WindowServer struct{}

func (WindowServer) Windows() ([]Window, error) { return nil, ErrUnsupported }

func (WindowServer) FrontmostPID() (int, error) { return 0, ErrUnsupported }
