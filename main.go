// main.go
package main

import (
	"flag"
	"fmt"
	"os"
	goruntime "runtime"

	"go.uber.org/zap"

	"github.com/petervdpas/glassnote/internal/config"
	"github.com/petervdpas/glassnote/internal/logging"
	"github.com/petervdpas/glassnote/internal/session"
	"github.com/petervdpas/glassnote/internal/ui/assets"
	"github.com/petervdpas/glassnote/internal/ui/viewmodels"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"github.com/wailsapp/wails/v2/pkg/options/mac"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
)

var dev = flag.Bool("dev", false, "Open the inspector and stream logs to the UI")

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
// and shown in the page metadata.
var appVersion = "dev"

func main() {
	flag.Parse()

	cfgPath, cfg := loadConfig()

	logs := logging.NewLogBuffer(800)
	log, err := logging.New(logging.Options{
		File:       cfg.ResolveLogFile(cfgPath),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      *dev,
		Tail:       logs,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "file logging disabled: %v\n", err)
		if log, err = logging.New(logging.Options{Debug: *dev, Tail: logs}); err != nil {
			log = zap.NewNop()
		}
	}
	defer log.Sync()

	overlayKey := "Ctrl+I"
	if goruntime.GOOS == "darwin" {
		overlayKey = "Cmd+I"
	}
	set, err := assets.Load(log.Named("assets"), viewmodels.EditorVM{
		BaseVM: viewmodels.BaseVM{
			Title:   cfg.Window.Title,
			Version: appVersion,
			Debug:   *dev,
		},
		Untitled:    session.Untitled,
		Placeholder: "Start typing...",
		OverlayKey:  overlayKey,
	})
	if err != nil {
		log.Error("load frontend", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}

	app := NewApp(Options{
		Cfg:     cfg,
		CfgPath: cfgPath,
		Dev:     *dev,
		Log:     log,
		Logs:    logs,
	})

	err = wails.Run(&options.App{
		Title:       cfg.Window.Title,
		Width:       cfg.Window.Width,
		Height:      cfg.Window.Height,
		MinWidth:    cfg.Window.MinWidth,
		MinHeight:   cfg.Window.MinHeight,
		Frameless:   true,
		AlwaysOnTop: cfg.Window.AlwaysOnTop,

		BackgroundColour: &options.RGBA{R: 30, G: 30, B: 30, A: 242},

		AssetServer: &assetserver.Options{
			Handler: set.Handler(),
		},

		Menu: app.menu(),

		Linux: &linux.Options{
			WindowIsTranslucent: true,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},
		Mac: &mac.Options{
			WebviewIsTransparent: true,
			WindowIsTranslucent:  true,
		},

		Debug: options.Debug{
			OpenInspectorOnStartup: *dev,
		},

		OnStartup:     app.startup,
		OnShutdown:    app.shutdown,
		OnBeforeClose: app.beforeClose,
		Bind:          []any{app},
	})
	if err != nil {
		log.Error("wails run", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// loadConfig returns the config file path and its contents. A missing file is
// created with defaults; an unreadable one falls back to defaults.
func loadConfig() (string, config.Config) {
	path, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config dir: %v, using defaults\n", err)
		return "config.json", config.Default()
	}

	cfg, _, err := config.Ensure(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config %s: %v, using defaults\n", path, err)
		return path, config.Default()
	}
	return path, cfg
}
