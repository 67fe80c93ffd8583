package screenshot

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework CoreGraphics -framework Foundation
#import <CoreGraphics/CoreGraphics.h>
#import <Foundation/Foundation.h>

bool hasScreenRecordingPermission() {
    if (@available(macOS 11.0, *)) {
        return CGPreflightScreenCaptureAccess();
    }
    return true;
}

void requestScreenRecordingPermission() {
    if (@available(macOS 11.0, *)) {
        CGRequestScreenCaptureAccess();
    }
}
*/
import "C"

// HasPermission checks if the app has screen recording permission.
func HasPermission() bool {
	return bool(C.hasScreenRecordingPermission())
}

// RequestPermission asks the system for screen recording permission.
func RequestPermission() {
	C.requestScreenRecordingPermission()
}
