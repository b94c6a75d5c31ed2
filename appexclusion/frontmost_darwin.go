//go:build darwin

package appexclusion

/*
#cgo CFLAGS: -x objective-c -fobjc-arc
#cgo LDFLAGS: -framework Cocoa

#include <Cocoa/Cocoa.h>
#include <stdlib.h>
#include <string.h>

static char *dsCopy(NSString *s) {
	if (s == nil) {
		return NULL;
	}
	return strdup(s.UTF8String);
}

static void dsFrontmost(char **bundleID, char **name) {
	@autoreleasepool {
		NSRunningApplication *app = [[NSWorkspace sharedWorkspace] frontmostApplication];
		*bundleID = dsCopy(app.bundleIdentifier);
		*name = dsCopy(app.localizedName);
	}
}
*/
import "C"

import "unsafe"

// Frontmost returns the application that currently owns the menu bar.
func Frontmost() (App, error) {
	var id, name *C.char
	C.dsFrontmost(&id, &name)
	defer C.free(unsafe.Pointer(id))
	defer C.free(unsafe.Pointer(name))
	return App{BundleID: goString(id), Name: goString(name)}, nil
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}
