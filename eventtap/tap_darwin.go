//go:build darwin

package eventtap

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>
#include <CoreGraphics/CoreGraphics.h>
#include <stdint.h>

extern CGEventRef goDragScrollTap(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon);

static CFMachPortRef dsTap = NULL;
static CFRunLoopSourceRef dsSource = NULL;
static CFRunLoopRef dsLoop = NULL;

typedef struct {
	double x;
	double y;
	uint64_t flags;
	int64_t clickState;
	int64_t button;
	int64_t userData;
} dsEventInfo;

static int dsCreateTap(void) {
	CGEventMask mask = CGEventMaskBit(kCGEventLeftMouseDown) |
	                   CGEventMaskBit(kCGEventLeftMouseDragged) |
	                   CGEventMaskBit(kCGEventLeftMouseUp);

	dsTap = CGEventTapCreate(kCGSessionEventTap,
	                         kCGHeadInsertEventTap,
	                         kCGEventTapOptionDefault,
	                         mask,
	                         goDragScrollTap,
	                         NULL);
	if (dsTap == NULL) {
		return 0;
	}
	dsSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, dsTap, 0);
	dsLoop = CFRunLoopGetCurrent();
	CFRunLoopAddSource(dsLoop, dsSource, kCFRunLoopCommonModes);
	CGEventTapEnable(dsTap, true);
	return 1;
}

static void dsRunFor(double seconds) {
	CFRunLoopRunInMode(kCFRunLoopDefaultMode, seconds, false);
}

static void dsWake(void) {
	if (dsLoop != NULL) {
		CFRunLoopStop(dsLoop);
	}
}

static void dsDestroyTap(void) {
	if (dsTap != NULL) {
		CGEventTapEnable(dsTap, false);
	}
	if (dsSource != NULL) {
		CFRunLoopRemoveSource(dsLoop, dsSource, kCFRunLoopCommonModes);
		CFRelease(dsSource);
		dsSource = NULL;
	}
	if (dsTap != NULL) {
		CFRelease(dsTap);
		dsTap = NULL;
	}
	dsLoop = NULL;
}

// dsReenable re-arms a tap the OS disabled. It refuses while the process
// is untrusted; an enabled tap without permission stalls input.
static int dsReenable(void) {
	if (dsTap == NULL || !AXIsProcessTrusted()) {
		return 0;
	}
	CGEventTapEnable(dsTap, true);
	return 1;
}

static dsEventInfo dsInfo(CGEventRef e) {
	dsEventInfo info;
	CGPoint p = CGEventGetLocation(e);
	info.x = p.x;
	info.y = p.y;
	info.flags = (uint64_t)CGEventGetFlags(e);
	info.clickState = CGEventGetIntegerValueField(e, kCGMouseEventClickState);
	info.button = CGEventGetIntegerValueField(e, kCGMouseEventButtonNumber);
	info.userData = CGEventGetIntegerValueField(e, kCGEventSourceUserData);
	return info;
}

static CGEventRef dsNullEvent(void) {
	return NULL;
}

static int dsIsDisabled(CGEventType type) {
	return type == kCGEventTapDisabledByTimeout || type == kCGEventTapDisabledByUserInput;
}
*/
import "C"

import (
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"go.aimuz.me/dragscroll/internal/types"
)

// active is the Tap the C callback delivers to.
var active atomic.Pointer[Tap]

const runSlice = 0.25 // seconds per run-loop slice

func (t *Tap) start() (func(), error) {
	ready := make(chan error, 1)
	done := make(chan struct{})
	var stopping atomic.Bool

	active.Store(t)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		if C.dsCreateTap() == 0 {
			ready <- ErrPermissionDenied
			return
		}
		ready <- nil

		for !stopping.Load() {
			C.dsRunFor(C.double(runSlice))
		}
		C.dsDestroyTap()
	}()

	if err := <-ready; err != nil {
		<-done
		active.CompareAndSwap(t, nil)
		t.log.Error("create event tap", "error", err)
		return nil, err
	}

	return func() {
		stopping.Store(true)
		C.dsWake()
		<-done
		active.CompareAndSwap(t, nil)
	}, nil
}

//export goDragScrollTap
func goDragScrollTap(_ C.CGEventTapProxy, typ C.CGEventType, event C.CGEventRef, _ unsafe.Pointer) C.CGEventRef {
	t := active.Load()

	if C.dsIsDisabled(typ) != 0 {
		if C.dsReenable() == 0 {
			if t != nil {
				t.log.Warn("event tap disabled by system; not re-enabled without accessibility permission")
			}
		} else if t != nil {
			t.log.Info("event tap re-enabled after system disable")
		}
		return event
	}

	if t == nil {
		return event
	}

	var kind types.PointerKind
	switch typ {
	case C.kCGEventLeftMouseDown:
		kind = types.PointerPress
	case C.kCGEventLeftMouseDragged:
		kind = types.PointerDrag
	case C.kCGEventLeftMouseUp:
		kind = types.PointerRelease
	default:
		return event
	}

	info := C.dsInfo(event)
	ev := types.PointerEvent{
		Kind:       kind,
		Point:      types.Point{X: float64(info.x), Y: float64(info.y)},
		Time:       time.Now(),
		Modifiers:  modifiersFromFlags(uint64(info.flags)),
		ClickState: int64(info.clickState),
		Button:     int(info.button),
		Synthetic:  int64(info.userData) == ReplayMarker,
	}

	if t.dispatch(ev) == types.Suppress {
		return C.dsNullEvent()
	}
	return event
}
