package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/interviewcoder/audiocapture"
	"go.aimuz.me/interviewcoder/cache"
	"go.aimuz.me/interviewcoder/clipboard"
	"go.aimuz.me/interviewcoder/config"
	"go.aimuz.me/interviewcoder/hotkey"
	"go.aimuz.me/interviewcoder/internal/history"
	"go.aimuz.me/interviewcoder/internal/metrics"
	"go.aimuz.me/interviewcoder/internal/orchestrator"
	"go.aimuz.me/interviewcoder/internal/remote"
	"go.aimuz.me/interviewcoder/internal/types"
	"go.aimuz.me/interviewcoder/langdetect"
	"go.aimuz.me/interviewcoder/llm"
	"go.aimuz.me/interviewcoder/screenshot"
)

// hideDelay gives the window time to disappear before the screen is captured.
const hideDelay = 100 * time.Millisecond

// SolverFactory builds a provider adapter from config.
type SolverFactory func(ctx context.Context, opts llm.Options) (llm.Solver, error)

// Service provides application functionality bound to Wails.
// It translates shell intents into orchestrator calls and owns the
// long-lived resources (cache, hotkeys, remote view).
type Service struct {
	mu         sync.RWMutex
	cfg        *config.Config
	configPath string // empty means config.Path()

	cache     *cache.Cache
	hotkey    *hotkey.HotkeyManager
	orch      *orchestrator.Orchestrator
	registry  *prometheus.Registry
	remote    *remote.Server
	detector  *langdetect.Detector
	newSolver SolverFactory

	// UI references - set via Init
	app     *application.App
	window  application.Window
	visible atomic.Bool

	version string
}

// New creates a new Service. Call Init() after Wails app is created.
func New(version string) *Service {
	return &Service{
		version:   version,
		newSolver: llm.New,
		detector:  langdetect.New(),
	}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window
	s.visible.Store(true)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = &config.Config{}
	}

	s.setupCache()
	s.setup(cfg, screenshot.New(), audiocapture.New())
	s.setupRemote()
	s.setupHotkey()
}

// setup builds the orchestrator and applies cfg. It needs no Wails objects.
func (s *Service) setup(cfg *config.Config, capturer orchestrator.ScreenCapturer, recorder orchestrator.AudioRecorder) {
	s.registry = prometheus.NewRegistry()
	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	base := filepath.Join(os.TempDir(), "interviewcoder")
	s.orch = orchestrator.New(orchestrator.Options{
		Capturer:       capturer,
		Recorder:       recorder,
		ScreenshotDir:  filepath.Join(base, "screenshots"),
		AudioDir:       filepath.Join(base, "audio"),
		History:        history.New(),
		Metrics:        metrics.New(s.registry),
		Emit:           s.emit,
		DetectLanguage: s.detector.Code,
	})

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		slog.Warn("no AI provider configured", "error", err)
		s.orch.Configure(nil, settingsFrom(cfg))
		return
	}
	solver, err := s.buildSolver(cfg)
	if err != nil {
		slog.Error("create solver", "provider", cfg.Provider, "error", err)
	}
	s.orch.Configure(solver, settingsFrom(cfg))
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	if s.hotkey != nil {
		s.hotkey.Stop()
	}
	if s.orch != nil {
		s.orch.ResetAudio()
		s.orch.ResetAll()
		s.orch.Wait()
	}
	if s.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.remote.Shutdown(ctx); err != nil {
			slog.Error("shutdown remote", "error", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			slog.Error("close cache", "error", err)
		}
	}
}

func (s *Service) setupCache() {
	dir, err := config.Dir()
	if err != nil {
		slog.Error("get config dir for cache", "error", err)
		return
	}

	cachePath := filepath.Join(dir, "cache")
	c, err := cache.New(cachePath)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.cache = c
	slog.Info("cache initialized", "path", cachePath)
}

// hotkeyAction adapts an intent to a hotkey callback. The hotkey manager
// already runs each callback on its own goroutine.
func hotkeyAction(name string, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			slog.Error("hotkey action", "action", name, "error", err)
		}
	}
}

func (s *Service) setupHotkey() {
	s.hotkey = hotkey.NewHotkeyManager(
		hotkey.Binding{Combo: "CmdOrCtrl+H", Action: hotkeyAction("screenshot", func() error {
			_, err := s.TakeScreenshot()
			return err
		})},
		hotkey.Binding{Combo: "CmdOrCtrl+Return", Action: hotkeyAction("process", func() error {
			s.ProcessQueue()
			return nil
		})},
		hotkey.Binding{Combo: "CmdOrCtrl+R", Action: hotkeyAction("reset", func() error {
			s.ResetAll()
			return nil
		})},
		hotkey.Binding{Combo: "CmdOrCtrl+M", Action: hotkeyAction("record", func() error {
			_, err := s.ToggleRecording()
			return err
		})},
		hotkey.Binding{Combo: "CmdOrCtrl+B", Action: hotkeyAction("window", func() error {
			s.ToggleWindowVisibility()
			return nil
		})},
	)

	s.hotkey.SetStatusCallback(func(granted bool) {
		s.emit(EventAccessibilityPerm, granted)
		if granted {
			slog.Info("accessibility permission granted")
		} else {
			slog.Warn("accessibility permission denied")
		}
	})

	if err := s.hotkey.Start(); err != nil {
		slog.Error("start hotkey", "error", err)
	}
}

func (s *Service) setupRemote() {
	s.mu.RLock()
	addr := s.cfg.RemoteAddr
	s.mu.RUnlock()
	if addr == "" {
		return
	}

	srv := remote.New(s, s.registry)
	if err := srv.Start(addr); err != nil {
		slog.Error("start remote view", "addr", addr, "error", err)
		return
	}
	s.remote = srv
}

// emit fans an event out to the webview and the remote view.
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
	if s.remote != nil {
		s.remote.Broadcast(name, data)
	}
}

func (s *Service) buildSolver(cfg *config.Config) (llm.Solver, error) {
	solver, err := s.newSolver(context.Background(), llm.Options{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey(),
		Model:    cfg.Model,
	})
	if err != nil {
		return nil, err
	}
	return withCache(solver, s.cache), nil
}

func settingsFrom(cfg *config.Config) orchestrator.Settings {
	return orchestrator.Settings{
		Language:      cfg.Language,
		InterviewType: cfg.InterviewType,
		AudioDeviceID: cfg.AudioDeviceID,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Configuration
// ─────────────────────────────────────────────────────────────────────────────

// GetConfig returns the active configuration.
func (s *Service) GetConfig() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg == nil {
		return config.Config{}
	}
	return *s.cfg
}

// SaveConfig validates cfg, persists it and switches the active provider.
// An invalid config is never applied.
func (s *Service) SaveConfig(cfg config.Config) error {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel(cfg.Provider)
	}

	solver, err := s.buildSolver(&cfg)
	if err != nil {
		return fmt.Errorf("create solver: %w", err)
	}

	if s.configPath != "" {
		err = cfg.SaveTo(s.configPath)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	s.mu.Lock()
	s.cfg = &cfg
	s.mu.Unlock()

	s.orch.Configure(solver, settingsFrom(&cfg))
	slog.Info("config saved", "provider", cfg.Provider, "model", cfg.Model)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Screenshot jobs
// ─────────────────────────────────────────────────────────────────────────────

// TakeScreenshot captures the screen behind the overlay and queues it.
// It returns nil without error when the queue is full.
func (s *Service) TakeScreenshot() (*types.Screenshot, error) {
	wasVisible := s.visible.Load()
	if wasVisible {
		s.HideWindow()
		time.Sleep(hideDelay)
	}
	defer func() {
		if wasVisible {
			s.ShowWindow()
		}
	}()

	if !screenshot.HasPermission() {
		screenshot.RequestPermission()
		err := fmt.Errorf("%w: screen recording permission required", types.ErrCapabilityUnavailable)
		s.emit(EventAppError, err.Error())
		return nil, err
	}

	shot, err := s.orch.TakeScreenshot(context.Background())
	if err != nil {
		s.emit(EventAppError, err.Error())
		return nil, err
	}
	return shot, nil
}

// ProcessQueue sends the queued screenshots to the provider.
func (s *Service) ProcessQueue() bool {
	return s.orch.ProcessQueue()
}

// ResetAll clears screenshots, the running job and history.
func (s *Service) ResetAll() {
	s.orch.ResetAll()
}

// ─────────────────────────────────────────────────────────────────────────────
// Audio jobs
// ─────────────────────────────────────────────────────────────────────────────

// ToggleRecording starts or stops the question recording.
func (s *Service) ToggleRecording() (types.RecordingState, error) {
	st, err := s.orch.ToggleRecording()
	if err != nil {
		s.emit(EventAppError, err.Error())
	}
	return st, err
}

// ResetAudio discards recordings and the running audio job.
func (s *Service) ResetAudio() {
	s.orch.ResetAudio()
}

// ClearCache drops every cached solution.
func (s *Service) ClearCache() error {
	if s.cache == nil {
		return fmt.Errorf("%w: cache not initialized", types.ErrCapabilityUnavailable)
	}
	if err := s.cache.Purge(); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	slog.Info("cache cleared")
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// State & history
// ─────────────────────────────────────────────────────────────────────────────

// GetState returns the current queue and job flags.
func (s *Service) GetState() types.State {
	return s.orch.State()
}

// GetHistory returns completed jobs, newest first.
func (s *Service) GetHistory() []types.HistoryEntry {
	return s.orch.History()
}

// CopyCode puts a solution's code on the clipboard.
func (s *Service) CopyCode(code string) error {
	if code == "" {
		return errors.New("nothing to copy")
	}
	return clipboard.SetText(s.app, code)
}

// DetectLanguage returns the natural language of text.
func (s *Service) DetectLanguage(text string) types.DetectResult {
	r, ok := s.detector.Detect(text)
	if !ok {
		return types.DetectResult{Code: "auto", Name: "Unknown"}
	}
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// Window & permissions
// ─────────────────────────────────────────────────────────────────────────────

// ToggleWindowVisibility shows the overlay when hidden and hides it otherwise.
func (s *Service) ToggleWindowVisibility() {
	if s.visible.Load() {
		s.HideWindow()
	} else {
		s.ShowWindow()
	}
	s.emit(EventWindowToggled, s.visible.Load())
}

// ShowWindow shows and focuses the overlay.
func (s *Service) ShowWindow() {
	s.visible.Store(true)
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// HideWindow hides the overlay.
func (s *Service) HideWindow() {
	s.visible.Store(false)
	if s.window != nil {
		s.window.Hide()
	}
}

// GetAccessibilityPermission returns whether accessibility is enabled.
func (s *Service) GetAccessibilityPermission() bool {
	return hotkey.IsAccessibilityEnabled(false)
}

// GetScreenRecordingPermission returns whether screen recording is permitted.
func (s *Service) GetScreenRecordingPermission() bool {
	return screenshot.HasPermission()
}

// RequestScreenRecordingPermission requests screen recording permission.
func (s *Service) RequestScreenRecordingPermission() {
	screenshot.RequestPermission()
}
