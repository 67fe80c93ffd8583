package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation
#include <stdbool.h>
#include <ApplicationServices/ApplicationServices.h>

static bool isTrusted(bool prompt) {
    const void *keys[] = { kAXTrustedCheckOptionPrompt };
    const void *values[] = { prompt ? kCFBooleanTrue : kCFBooleanFalse };
    CFDictionaryRef opts = CFDictionaryCreate(NULL, keys, values, 1,
        &kCFTypeDictionaryKeyCallBacks, &kCFTypeDictionaryValueCallBacks);
    bool trusted = AXIsProcessTrustedWithOptions(opts);
    CFRelease(opts);
    return trusted;
}
*/
import "C"

// IsAccessibilityEnabled reports whether global key events can be observed.
// With prompt set, macOS shows the permission dialog when not yet granted.
func IsAccessibilityEnabled(prompt bool) bool {
	return bool(C.isTrusted(C.bool(prompt)))
}
