package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"sketchpad/internal/domain"
	"sketchpad/internal/service"
)

func (s *Server) registerToolSelectionTools() {
	s.mcp.AddTool(mcp.NewTool("set_tool",
		mcp.WithDescription("Change the drawing tool. Choosing a colour switches back to the pencil."),
		mcp.WithString("tool", mcp.Description("'pencil' or 'eraser' (optional)")),
		mcp.WithString("color", mcp.Description("Stroke colour (optional, hex, rgb() or a CSS colour name)")),
		mcp.WithNumber("width", mcp.Description("Stroke width in pixels (optional)")),
		mcp.WithNumber("preset", mcp.Description(fmt.Sprintf("Width preset index 0-%d (optional, overrides width)", len(domain.WidthPresets)-1))),
	), s.handleSetTool)
}

func (s *Server) handleSetTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	update, err := toolUpdateFromArgs(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.canvas.UpdateTool(update); err != nil {
		return nil, err
	}
	return jsonResult(s.canvas.State().Tool)
}

// toolUpdateFromArgs checks the tool name and preset index. Colour and
// width are checked by UpdateTool, which applies nothing on error.
func toolUpdateFromArgs(args map[string]any) (service.ToolUpdate, error) {
	var u service.ToolUpdate
	if c, ok := args["color"].(string); ok {
		u.Color = c
	}
	if p, ok := args["preset"].(float64); ok {
		w, err := service.PresetWidth(int(p))
		if err != nil {
			return u, err
		}
		u.Width = &w
	} else if w, ok := args["width"].(float64); ok {
		u.Width = &w
	}
	switch tool, _ := args["tool"].(string); tool {
	case "":
	case "pencil", "eraser":
		erasing := tool == "eraser"
		u.Erasing = &erasing
	default:
		return u, fmt.Errorf("unknown tool %q (want pencil or eraser)", tool)
	}
	return u, nil
}
