package main

import (
	"embed"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/menu"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/mac"

	sketchpadApp "sketchpad/internal/app"
	"sketchpad/internal/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfgPath := config.DefaultPath()

	// `sketchpad mcp` serves the canvas to agents over stdio, no window.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		sketchpadApp.ServeMCP(cfgPath)
		return
	}

	app, err := sketchpadApp.New(cfgPath)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	size := app.WindowSize()

	// macOS needs an Edit menu for Cmd+Z to reach the WebView
	appMenu := menu.NewMenu()
	appMenu.Append(menu.EditMenu())

	err = wails.Run(&options.App{
		Title:     "Sketchpad",
		Width:     size.Width,
		Height:    size.Height,
		MinWidth:  320,
		MinHeight: 240,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 255, G: 255, B: 255, A: 1},
		Menu:             appMenu,
		OnStartup:        app.Startup,
		OnShutdown:       app.Shutdown,
		Bind: []interface{}{
			app,
		},
		Mac: &mac.Options{
			TitleBar: &mac.TitleBar{
				TitlebarAppearsTransparent: true,
				HideTitle:                  true,
				FullSizeContent:            true,
			},
			About: &mac.AboutInfo{
				Title:   "Sketchpad",
				Message: "Freehand drawing with undo history",
			},
		},
	})

	if err != nil {
		println("Error:", err.Error())
	}
}
