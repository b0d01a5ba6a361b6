package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "sketchpad/internal/mcp"
	"sketchpad/internal/service"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It opens the configured store, loads the canvas, and serves until
// interrupted. Destructive tools are auto-approved since no frontend can answer.
func ServeMCP(cfgPath string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := New(cfgPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer a.close()

	emitter := service.NopEmitter{}
	canvas, err := a.newCanvas(emitter)
	if err != nil {
		log.Fatalf("Failed to create canvas: %v", err)
	}
	if err := canvas.Start(ctx); err != nil {
		log.Printf("Failed to load canvas, starting from what could be restored: %v", err)
	}

	if a.maint != nil {
		a.maint.Start()
	}

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:     emitter,
		Canvas:      canvas,
		ExportDir:   a.cfg.ExportDir(),
		AutoApprove: true,
	})

	log.Println("[MCP] Starting standalone stdio server...")
	if err := mcpSrv.ServeStdio(); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
