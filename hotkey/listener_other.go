//go:build !darwin

package hotkey

type unsupportedListener struct{}

func newListener() listener {
	return unsupportedListener{}
}

func (unsupportedListener) Listen([]string, func()) error { return ErrUnsupported }

func (unsupportedListener) Close() {}
