package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/pkg/browser"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"go.driftwork.dev/drift/config"
	"go.driftwork.dev/drift/internal/app"
	"go.driftwork.dev/drift/internal/logging"
)

//go:embed all:frontend/dist
var assets embed.FS

//go:embed build/trayicon.png
var trayIconBytes []byte

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		cfg = config.Default()
	}
	logging.Setup(cfg.LogLevel)

	slog.Info("starting app", "version", version, "commit", commit, "date", date)
	appService := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Drift",
		Description: "Brief recording and screenshots",
		Services: []application.Service{
			application.NewService(appService),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Don't quit when all windows are closed (we have a system tray)
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
		// Windows and Linux start a second process for each deep link.
		// Forward its arguments to the running instance.
		SingleInstance: &application.SingleInstanceOptions{
			UniqueID: "dev.driftwork.drift",
			OnSecondInstanceLaunch: func(data application.SecondInstanceData) {
				slog.Info("second instance launched", "args", len(data.Args))
				appService.HandleDeepLinks(data.Args)
			},
		},
	})

	mainWindow := wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:  "Drift",
		Width:  1024,
		Height: 768,
		URL:    "/",
		Mac: application.MacWindow{
			TitleBar:                application.MacTitleBarHiddenInsetUnified,
			InvisibleTitleBarHeight: 38,
		},
		DevToolsEnabled: version == "dev",
	})

	// Intercept window close: hide instead of destroy so tray can reopen
	mainWindow.RegisterHook(events.Common.WindowClosing, func(e *application.WindowEvent) {
		e.Cancel()
		mainWindow.Hide()
	})

	appService.Init(wailsApp, mainWindow, cfg)

	// macOS delivers custom-scheme URLs as an application event.
	wailsApp.Event.OnApplicationEvent(events.Common.ApplicationLaunchedWithUrl, func(e *application.ApplicationEvent) {
		appService.HandleDeepLinks([]string{e.Context().URL()})
	})

	// First launch from a deep link on Windows and Linux.
	if len(os.Args) > 1 {
		appService.HandleDeepLinks(os.Args[1:])
	}

	systemTray := wailsApp.SystemTray.New()
	systemTray.SetIcon(trayIconBytes)

	trayMenu := wailsApp.NewMenu()
	trayMenu.Add("Show Window").OnClick(func(ctx *application.Context) {
		appService.ShowWindow()
	})
	trayMenu.Add("Capture Screenshot").OnClick(func(ctx *application.Context) {
		go appService.QuickCapture()
	})
	trayMenu.Add("Sign In").OnClick(func(ctx *application.Context) {
		callbackURL, err := appService.StartAuthServer()
		if err != nil {
			slog.Error("start auth server from tray", "error", err)
			return
		}
		loginURL, err := appService.LoginURL(callbackURL)
		if err != nil {
			slog.Error("build login url", "error", err)
			return
		}
		if err := browser.OpenURL(loginURL); err != nil {
			slog.Error("open login page", "error", err)
		}
	})

	trayMenu.AddSeparator()
	trayMenu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			appService.Shutdown()
			wailsApp.Quit()
		})

	systemTray.SetMenu(trayMenu)

	if err := wailsApp.Run(); err != nil {
		slog.Error("run app", "error", err)
	}
}
