package main

import (
	"embed"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"go.aimuz.me/interviewcoder/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/tray.png
var trayIconBytes []byte

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func setupLogger() {
	level := slog.LevelInfo
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			level = slog.LevelInfo
		}
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	})))
}

func main() {
	setupLogger()
	slog.Info("starting app", "version", version, "commit", commit, "date", date)

	svc := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Interview Coder",
		Description: "Screenshot and audio assistant for coding interviews",
		Services: []application.Service{
			application.NewService(svc),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Keep running in the tray when the overlay is closed.
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	overlay := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:       "Interview Coder",
		Width:       800,
		Height:      600,
		URL:         "/",
		AlwaysOnTop: true,
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
	})

	// Hide instead of destroy so the tray and hotkeys can bring it back.
	overlay.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		svc.HideWindow()
	})

	svc.Init(wailsApp, overlay)

	tray := wailsApp.SystemTray.New()
	tray.SetIcon(trayIconBytes)

	menu := wailsApp.NewMenu()
	menu.Add("Show / Hide").
		SetAccelerator("CmdOrCtrl+B").
		OnClick(func(*application.Context) { svc.ToggleWindowVisibility() })
	menu.AddSeparator()
	menu.Add("Take Screenshot").
		SetAccelerator("CmdOrCtrl+H").
		OnClick(func(*application.Context) {
			go func() {
				if _, err := svc.TakeScreenshot(); err != nil {
					slog.Error("screenshot from tray", "error", err)
				}
			}()
		})
	menu.Add("Solve").
		SetAccelerator("CmdOrCtrl+Return").
		OnClick(func(*application.Context) { svc.ProcessQueue() })
	menu.Add("Start / Stop Recording").
		SetAccelerator("CmdOrCtrl+M").
		OnClick(func(*application.Context) {
			if _, err := svc.ToggleRecording(); err != nil {
				slog.Error("toggle recording from tray", "error", err)
			}
		})
	menu.AddSeparator()
	menu.Add("Reset Screenshots").
		SetAccelerator("CmdOrCtrl+R").
		OnClick(func(*application.Context) { svc.ResetAll() })
	menu.Add("Reset Audio").
		OnClick(func(*application.Context) { svc.ResetAudio() })
	menu.Add("Clear Solution Cache").
		OnClick(func(*application.Context) {
			if err := svc.ClearCache(); err != nil {
				slog.Error("clear cache from tray", "error", err)
			}
		})
	menu.AddSeparator()
	menu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(*application.Context) {
			svc.Shutdown()
			wailsApp.Quit()
		})

	tray.SetMenu(menu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
