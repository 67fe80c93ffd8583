// Package clipboard writes the system clipboard through Wails.
package clipboard

import (
	"errors"

	"github.com/wailsapp/wails/v3/pkg/application"
)

var errUnavailable = errors.New("clipboard unavailable")

// SetText replaces the clipboard text.
func SetText(app *application.App, text string) error {
	if app == nil {
		return errUnavailable
	}
	if !app.Clipboard.SetText(text) {
		return errors.New("failed to set clipboard content")
	}
	return nil
}
