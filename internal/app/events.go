// Package app provides the core application service for Wails bindings.
package app

// Event names emitted by the shell itself. Job lifecycle events are defined
// in the orchestrator package.
const (
	EventAccessibilityPerm = "accessibility-permission"
	EventAppError          = "app-error"
	EventWindowToggled     = "window-toggled"
)
