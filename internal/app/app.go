package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sketchpad/internal/config"
	"sketchpad/internal/domain"
	mcpserver "sketchpad/internal/mcp"
	"sketchpad/internal/service"
	"sketchpad/internal/storage"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cfgPath string
	cfg     config.Config
	logger  *slog.Logger

	// Exactly one of db / kvBadger is open, per cfg.Store.Driver.
	db       *storage.DB
	kvBadger *storage.BadgerStore
	maint    *storage.Maintenance
	store    domain.KVStore

	viewport *service.ViewportSettingsService
	canvas   *service.CanvasService
	watcher  *config.Watcher
	external *storeWatcher
	mcp      *mcpserver.Server
}

// wailsEmitter forwards service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// New creates a new App: it loads the configuration at cfgPath and opens
// the store, so the saved window size is known before wails.Run.
func New(cfgPath string) (*App, error) {
	a := &App{cfgPath: cfgPath}
	if err := a.open(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) open() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger(os.Stderr)

	switch cfg.Store.Driver {
	case config.DriverBadger:
		bcfg := storage.DefaultBadgerConfig(cfg.BadgerPath())
		bcfg.Logger = a.logger
		kv, err := storage.OpenBadger(bcfg)
		if err != nil {
			return err
		}
		maint, err := storage.NewMaintenance(kv, cfg.Store.GCSchedule, a.logger)
		if err != nil {
			kv.Close()
			return err
		}
		a.kvBadger, a.maint, a.store = kv, maint, kv
	default:
		db, err := storage.New(cfg.SQLitePath())
		if err != nil {
			return err
		}
		a.db, a.store = db, storage.NewSettingsStore(db)
	}

	a.viewport = service.NewViewportSettingsService(a.store, cfg.Store.Namespace, service.Viewport{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
	})
	a.logger.Info("store opened", "driver", cfg.Store.Driver, "dataDir", cfg.DataDir)
	return nil
}

// WindowSize returns the saved window size.
func (a *App) WindowSize() service.Viewport {
	return a.viewport.LoadViewport()
}

// newCanvas builds a canvas session sized to the saved viewport.
func (a *App) newCanvas(emitter service.EventEmitter) (*service.CanvasService, error) {
	vp := a.viewport.LoadViewport()
	gw := service.NewGateway(a.store, a.cfg.Store.Namespace, a.logger)
	return service.NewCanvasService(gw, emitter, a.logger, service.CanvasOptions{
		Width:      vp.Width,
		Height:     vp.Height,
		EraseColor: a.cfg.Canvas.EraseColor,
		MaxDepth:   a.cfg.History.MaxDepth,
	})
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	canvas, err := a.newCanvas(wailsEmitter{})
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to create canvas: %v", err)
		return
	}
	a.canvas = canvas
	if err := canvas.Start(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to load canvas, starting from what could be restored: %v", err)
	}

	if a.maint != nil {
		a.maint.Start()
	}

	w, err := config.Watch(ctx, a.cfgPath, a.applyConfig, a.logger)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Config hot reload disabled: %v", err)
	}
	a.watcher = w

	// Picks up writes from a standalone MCP process sharing the store.
	a.external = newStoreWatcher(ctx, canvas, wailsEmitter{}, 2*time.Second)
	a.external.Start()

	if addr := a.cfg.MCP.Listen; addr != "" {
		a.mcp = mcpserver.New(ctx, mcpserver.Deps{
			Emitter:   wailsEmitter{},
			Canvas:    canvas,
			ExportDir: a.cfg.ExportDir(),
		})
		go func() {
			if err := a.mcp.ServeHTTP(addr); err != nil {
				wailsRuntime.LogErrorf(ctx, "MCP server error: %v", err)
			}
		}()
	}
}

// applyConfig takes the settings that can change without a restart.
func (a *App) applyConfig(cfg config.Config) {
	if a.canvas == nil {
		return
	}
	a.canvas.SetMaxDepth(cfg.History.MaxDepth)
	if err := a.canvas.SetEraseColor(cfg.Canvas.EraseColor); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Ignoring erase colour: %v", err)
	}
	if cfg.Store.Driver != a.cfg.Store.Driver || cfg.DataDir != a.cfg.DataDir {
		wailsRuntime.LogInfof(a.ctx, "Store changes take effect after a restart")
	}
	wailsRuntime.EventsEmit(a.ctx, "config:reloaded", nil)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.external != nil {
		a.external.Stop()
	}
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.mcp != nil {
		if err := a.mcp.Shutdown(ctx); err != nil {
			wailsRuntime.LogErrorf(ctx, "MCP shutdown: %v", err)
		}
	}
	a.close()
}

// close releases the store. Safe to call more than once.
func (a *App) close() {
	if a.maint != nil {
		a.maint.Stop()
		a.maint = nil
	}
	if a.kvBadger != nil {
		if err := a.kvBadger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close badger: %v\n", err)
		}
		a.kvBadger = nil
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	a.store = nil
}
