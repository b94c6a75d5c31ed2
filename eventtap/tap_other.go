//go:build !darwin

package eventtap

import "go.aimuz.me/dragscroll/internal/types"

func (t *Tap) start() (func(), error) {
	return nil, ErrUnsupported
}

func (Poster) PostScroll(types.ScrollEvent) {}

func (Poster) PostPointer(types.PointerEvent) {}

// CursorPosition returns ErrUnsupported on this platform.
func CursorPosition() (types.Point, error) {
	return types.Point{}, ErrUnsupported
}
