package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"sketchpad/internal/codec"
	"sketchpad/internal/service"
)

func (s *Server) registerCanvasTools() {
	s.mcp.AddTool(mcp.NewTool("draw_stroke",
		mcp.WithDescription("Draw one freehand stroke through a list of points with the current tool. The stroke is a single undoable action."),
		mcp.WithString("points", mcp.Description(`JSON array of points, either [{"x":10,"y":20}, ...] or [[10,20], ...]. At least two points.`), mcp.Required()),
		mcp.WithString("color", mcp.Description("Stroke colour for this and later strokes (optional, e.g. #3b82f6 or red)")),
		mcp.WithNumber("width", mcp.Description("Stroke width in pixels for this and later strokes (optional)")),
	), s.handleDrawStroke)

	s.mcp.AddTool(mcp.NewTool("clear_canvas",
		mcp.WithDescription("🛑 DESTRUCTIVE: Wipe the whole canvas. Undoable, but requires user approval."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearCanvas)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the most recent stroke or clear"),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the most recently undone action"),
	), s.handleRedo)

	s.mcp.AddTool(mcp.NewTool("get_canvas_state",
		mcp.WithDescription("Get canvas size, tool state and undo/redo availability"),
	), s.handleGetCanvasState)

	s.mcp.AddTool(mcp.NewTool("get_canvas_image",
		mcp.WithDescription("Get the current canvas as a PNG image"),
	), s.handleGetCanvasImage)

	s.mcp.AddTool(mcp.NewTool("export_png",
		mcp.WithDescription("Save the canvas as a PNG file"),
		mcp.WithString("path", mcp.Description("Destination file path (optional, defaults to a timestamped file in the export directory)")),
	), s.handleExportPNG)
}

func boolPtr(v bool) *bool { return &v }

func (s *Server) handleDrawStroke(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, _ := args["points"].(string)
	points, err := parsePoints(raw)
	if err != nil {
		return nil, err
	}
	if len(points) < 2 {
		return nil, fmt.Errorf("draw_stroke needs at least two points, got %d", len(points))
	}

	var update service.ToolUpdate
	if c, ok := args["color"].(string); ok && c != "" {
		update.Color = c
	}
	if w, ok := args["width"].(float64); ok && w > 0 {
		update.Width = &w
	}
	if update.Color != "" || update.Width != nil {
		if err := s.canvas.UpdateTool(update); err != nil {
			return nil, err
		}
	}

	if err := s.canvas.Stroke(points); err != nil {
		return nil, fmt.Errorf("draw stroke: %w", err)
	}
	s.emitCanvasChanged("draw_stroke")
	return textResult(fmt.Sprintf("Drew stroke through %d points", len(points))), nil
}

func (s *Server) handleClearCanvas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	approved, err := s.approval.Request("clear_canvas", "Clear the entire canvas")
	if err != nil || !approved {
		return textResult("Action rejected by user"), nil
	}
	if err := s.canvas.Clear(); err != nil {
		return nil, fmt.Errorf("clear canvas: %w", err)
	}
	s.emitCanvasChanged("clear_canvas")
	return textResult("Canvas cleared"), nil
}

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyStep(ctx, "undo", s.canvas.Undo)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.historyStep(ctx, "redo", s.canvas.Redo)
}

func (s *Server) historyStep(ctx context.Context, name string, step func(context.Context) (bool, error)) (*mcp.CallToolResult, error) {
	ctx, cancel := s.withRestoreTimeout(ctx)
	defer cancel()

	moved, err := step(ctx)
	switch {
	case errors.Is(err, service.ErrBusy):
		return textResult("Canvas is busy, try again"), nil
	case err != nil:
		return nil, fmt.Errorf("%s: %w", name, err)
	case !moved:
		return textResult("Nothing to " + name), nil
	}
	s.emitCanvasChanged(name)
	return textResult(strings.ToUpper(name[:1]) + name[1:] + " done"), nil
}

func (s *Server) handleGetCanvasState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.canvas.State())
}

func (s *Server) handleGetCanvasImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.canvas.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := codec.PNGBytes(snap)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewImageContent(encodeBase64(data), "image/png"),
		},
	}, nil
}

func (s *Server) handleExportPNG(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sink := service.FileSink{Dir: s.exportDir}
	if p, ok := args["path"].(string); ok && p != "" {
		if !strings.EqualFold(filepath.Ext(p), ".png") {
			p += ".png"
		}
		sink = service.FileSink{Path: p}
	}
	if sink.Path == "" && sink.Dir == "" {
		return nil, fmt.Errorf("no path given and no export directory configured")
	}
	if !s.canvas.Export(ctx, sink) {
		return textResult("Export failed, see logs"), nil
	}
	if sink.Path != "" {
		return textResult("Exported to " + sink.Path), nil
	}
	return textResult("Exported to " + sink.Dir), nil
}
