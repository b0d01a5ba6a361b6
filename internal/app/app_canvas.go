package app

import (
	"context"
	"fmt"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"sketchpad/internal/domain"
	"sketchpad/internal/service"
)

// ============================================================
// Canvas
// ============================================================

func (a *App) GetCanvasState() service.CanvasState {
	return a.canvas.State()
}

// GetCanvasImage returns the live raster as a data URL for the <canvas>.
func (a *App) GetCanvasImage() (string, error) {
	snap, err := a.canvas.Snapshot(a.ctx)
	return string(snap), err
}

func (a *App) BeginStroke(x, y float64) error {
	return a.canvas.BeginStroke(domain.Point{X: x, Y: y})
}

func (a *App) StrokeTo(x, y float64) {
	a.canvas.StrokeTo(domain.Point{X: x, Y: y})
}

func (a *App) EndStroke() {
	a.canvas.EndStroke()
}

func (a *App) ClearCanvas() error {
	return a.canvas.Clear()
}

func (a *App) Undo() (bool, error) {
	return a.canvas.Undo(a.ctx)
}

func (a *App) Redo() (bool, error) {
	return a.canvas.Redo(a.ctx)
}

// ResizeCanvas follows the window size and remembers it for next launch.
func (a *App) ResizeCanvas(width, height int) error {
	if err := a.canvas.Resize(width, height); err != nil {
		return err
	}
	if err := a.viewport.SaveViewport(width, height); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "Failed to save viewport: %v", err)
	}
	return nil
}

// ============================================================
// Tool
// ============================================================

func (a *App) SelectColor(color string) error {
	return a.canvas.SelectColor(color)
}

func (a *App) SelectWidthPreset(index int) error {
	return a.canvas.SelectWidthPreset(index)
}

func (a *App) SetWidth(width float64) error {
	return a.canvas.SetWidth(width)
}

func (a *App) SelectPencil() {
	a.canvas.SelectPencil()
}

func (a *App) SelectEraser() {
	a.canvas.SelectEraser()
}

// WidthPresets lists the widths offered by the line picker.
func (a *App) WidthPresets() []float64 {
	return append([]float64(nil), domain.WidthPresets...)
}

// ============================================================
// Export
// ============================================================

// ExportImage asks for a destination and writes the canvas as PNG.
// Failures are reported through the "canvas:export-failed" event.
func (a *App) ExportImage() bool {
	return a.canvas.Export(a.ctx, dialogSink{ctx: a.ctx})
}

// dialogSink asks the user where to save through the native dialog.
type dialogSink struct {
	ctx context.Context
}

func (d dialogSink) Write(ctx context.Context, name string, png []byte) error {
	path, err := wailsRuntime.SaveFileDialog(d.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export drawing",
		DefaultFilename: name,
		Filters: []wailsRuntime.FileFilter{
			{DisplayName: "PNG image (*.png)", Pattern: "*.png"},
		},
	})
	if err != nil {
		return fmt.Errorf("save dialog: %w", err)
	}
	if path == "" {
		return domain.ErrExportCancelled
	}
	return service.FileSink{Path: path}.Write(ctx, name, png)
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveAction approves a pending destructive agent action.
func (a *App) ApproveAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Approve(actionID)
	}
}

// RejectAction rejects a pending destructive agent action.
func (a *App) RejectAction(actionID string) {
	if a.mcp != nil {
		a.mcp.Reject(actionID)
	}
}
