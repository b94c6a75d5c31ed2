//go:build darwin

package exclusion

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation -framework Cocoa

#include <CoreGraphics/CoreGraphics.h>
#include <Cocoa/Cocoa.h>
#include <stdlib.h>

typedef struct {
	double x, y, w, h;
	int layer;
	int pid;
	char owner[128];
} dsWindow;

static int dsNumber(CFDictionaryRef d, CFStringRef key) {
	int v = 0;
	CFNumberRef n = CFDictionaryGetValue(d, key);
	if (n != NULL) {
		CFNumberGetValue(n, kCFNumberIntType, &v);
	}
	return v;
}

// dsListWindows returns a malloc'd array of on-screen windows; the caller
// frees it. Returns -1 when the window server refuses the query.
static int dsListWindows(dsWindow **out) {
	CFArrayRef list = CGWindowListCopyWindowInfo(
		kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements, kCGNullWindowID);
	if (list == NULL) {
		return -1;
	}
	CFIndex n = CFArrayGetCount(list);
	dsWindow *ws = calloc(n > 0 ? n : 1, sizeof(dsWindow));
	int count = 0;
	for (CFIndex i = 0; i < n; i++) {
		CFDictionaryRef d = CFArrayGetValueAtIndex(list, i);
		CFDictionaryRef b = CFDictionaryGetValue(d, kCGWindowBounds);
		CGRect r;
		if (b == NULL || !CGRectMakeWithDictionaryRepresentation(b, &r)) {
			continue;
		}
		dsWindow *w = &ws[count++];
		w->x = r.origin.x;
		w->y = r.origin.y;
		w->w = r.size.width;
		w->h = r.size.height;
		w->layer = dsNumber(d, kCGWindowLayer);
		w->pid = dsNumber(d, kCGWindowOwnerPID);
		CFStringRef owner = CFDictionaryGetValue(d, kCGWindowOwnerName);
		if (owner == NULL || !CFStringGetCString(owner, w->owner, sizeof(w->owner), kCFStringEncodingUTF8)) {
			w->owner[0] = 0;
		}
	}
	CFRelease(list);
	*out = ws;
	return count;
}

static int dsFrontmostPID(void) {
	NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
	if (app == nil) {
		return 0;
	}
	return (int)app.processIdentifier;
}
*/
import "C"

import (
	"errors"
	"unsafe"

	"go.aimuz.me/dragscroll/internal/types"
)

// WindowServer lists windows through Quartz Window Services.
type WindowServer struct{}

func (WindowServer) Windows() ([]Window, error) {
	var ws *C.dsWindow
	n := int(C.dsListWindows(&ws))
	if n < 0 {
		return nil, errors.New("exclusion: window list unavailable")
	}
	defer C.free(unsafe.Pointer(ws))

	raw := unsafe.Slice(ws, n)
	out := make([]Window, 0, n)
	for _, w := range raw {
		out = append(out, Window{
			Owner: C.GoString(&w.owner[0]),
			PID:   int(w.pid),
			Layer: int(w.layer),
			Bounds: types.Rect{
				X: float64(w.x), Y: float64(w.y),
				Width: float64(w.w), Height: float64(w.h),
			},
		})
	}
	return out, nil
}

func (WindowServer) FrontmostPID() (int, error) {
	return int(C.dsFrontmostPID()), nil
}
