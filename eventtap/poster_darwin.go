//go:build darwin

package eventtap

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <CoreGraphics/CoreGraphics.h>
#include <stdint.h>

static void dsPostScroll(int32_t dy, int32_t dx, int64_t scrollPhase, int64_t momentumPhase, int64_t marker) {
	CGEventRef ev = CGEventCreateScrollWheelEvent2(NULL, kCGScrollEventUnitPixel, 3, dy, dx, 0);
	if (ev == NULL) {
		return;
	}
	CGEventSetIntegerValueField(ev, kCGScrollWheelEventIsContinuous, 1);
	CGEventSetIntegerValueField(ev, kCGScrollWheelEventScrollPhase, scrollPhase);
	CGEventSetIntegerValueField(ev, kCGScrollWheelEventMomentumPhase, momentumPhase);
	CGEventSetIntegerValueField(ev, kCGEventSourceUserData, marker);
	CGEventPost(kCGSessionEventTap, ev);
	CFRelease(ev);
}

static void dsPostMouse(int down, double x, double y, int64_t clickState, int64_t marker) {
	CGEventSourceRef src = CGEventSourceCreate(kCGEventSourceStateHIDSystemState);
	CGEventType type = down ? kCGEventLeftMouseDown : kCGEventLeftMouseUp;
	CGEventRef ev = CGEventCreateMouseEvent(src, type, CGPointMake(x, y), kCGMouseButtonLeft);
	if (ev != NULL) {
		CGEventSetIntegerValueField(ev, kCGMouseEventClickState, clickState);
		CGEventSetIntegerValueField(ev, kCGEventSourceUserData, marker);
		CGEventPost(kCGHIDEventTap, ev);
		CFRelease(ev);
	}
	if (src != NULL) {
		CFRelease(src);
	}
}

static CGPoint dsCursor(void) {
	CGEventRef ev = CGEventCreate(NULL);
	if (ev == NULL) {
		return CGPointZero;
	}
	CGPoint p = CGEventGetLocation(ev);
	CFRelease(ev);
	return p;
}
*/
import "C"

import "go.aimuz.me/dragscroll/internal/types"

// PostScroll posts a pixel scroll event to the session. Momentum events
// never carry a gesture phase.
func (Poster) PostScroll(e types.ScrollEvent) {
	phase := e.Phase
	if e.IsMomentum() {
		phase = types.ScrollPhaseNone
	}
	C.dsPostScroll(C.int32_t(e.DY), C.int32_t(e.DX),
		C.int64_t(phase), C.int64_t(e.Momentum), C.int64_t(ReplayMarker))
}

// PostPointer posts a primary-button press or release at the HID level, so
// the window server treats it like hardware input.
func (Poster) PostPointer(e types.PointerEvent) {
	var down C.int
	switch e.Kind {
	case types.PointerPress:
		down = 1
	case types.PointerRelease:
	default:
		return
	}
	clickState := e.ClickState
	if clickState < 1 {
		clickState = 1
	}
	C.dsPostMouse(down, C.double(e.Point.X), C.double(e.Point.Y),
		C.int64_t(clickState), C.int64_t(ReplayMarker))
}

// CursorPosition returns the current pointer location.
func CursorPosition() (types.Point, error) {
	p := C.dsCursor()
	return types.Point{X: float64(p.x), Y: float64(p.y)}, nil
}
