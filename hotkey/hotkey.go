// Package hotkey registers global keyboard shortcuts.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// ErrRunning is returned when Start is called twice.
var ErrRunning = errors.New("hotkey manager already running")

// Binding maps a combo such as "CmdOrCtrl+H" to an action.
type Binding struct {
	Combo  string
	Action func()
}

// HotkeyManager owns the global keyboard hook.
type HotkeyManager struct {
	mu       sync.Mutex
	bindings []Binding
	running  bool
	done     chan struct{}
	onStatus func(granted bool)
}

// NewHotkeyManager creates a manager for the given bindings.
func NewHotkeyManager(bindings ...Binding) *HotkeyManager {
	return &HotkeyManager{bindings: bindings}
}

// SetStatusCallback is called from Start with the accessibility permission state.
func (m *HotkeyManager) SetStatusCallback(fn func(granted bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStatus = fn
}

// Start registers every binding and begins processing key events.
func (m *HotkeyManager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return ErrRunning
	}

	type parsed struct {
		keys   []string
		action func()
	}
	var regs []parsed
	for _, b := range m.bindings {
		keys, err := ParseCombo(b.Combo, runtime.GOOS)
		if err != nil {
			return fmt.Errorf("binding %q: %w", b.Combo, err)
		}
		regs = append(regs, parsed{keys: keys, action: b.Action})
	}

	granted := IsAccessibilityEnabled(true)
	if m.onStatus != nil {
		m.onStatus(granted)
	}

	for _, r := range regs {
		action := r.action
		hook.Register(hook.KeyDown, r.keys, func(hook.Event) {
			go action()
		})
	}

	events := hook.Start()
	done := make(chan struct{})
	go func() {
		<-hook.Process(events)
		close(done)
	}()

	m.running = true
	m.done = done
	slog.Info("hotkeys registered", "count", len(regs))
	return nil
}

// Stop unregisters every binding.
func (m *HotkeyManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	hook.End()
	<-m.done
	m.running = false
}

var modifierAliases = map[string]string{
	"cmd":     "cmd",
	"command": "cmd",
	"super":   "cmd",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
}

var keyAliases = map[string]string{
	"return": "enter",
	"esc":    "esc",
	"escape": "esc",
	"space":  "space",
}

// ParseCombo turns "CmdOrCtrl+Shift+H" into gohook's form: the key first,
// then the modifiers.
func ParseCombo(combo, goos string) ([]string, error) {
	var key string
	var mods []string

	for _, part := range strings.Split(combo, "+") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			return nil, fmt.Errorf("empty key in %q", combo)
		}
		if p == "cmdorctrl" || p == "commandorcontrol" {
			if goos == "darwin" {
				p = "cmd"
			} else {
				p = "ctrl"
			}
		}
		if m, ok := modifierAliases[p]; ok {
			mods = append(mods, m)
			continue
		}
		if key != "" {
			return nil, fmt.Errorf("more than one key in %q", combo)
		}
		if a, ok := keyAliases[p]; ok {
			p = a
		}
		key = p
	}

	if key == "" {
		return nil, fmt.Errorf("no key in %q", combo)
	}
	return append([]string{key}, mods...), nil
}
