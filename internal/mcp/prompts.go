package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("sketch_subject",
		mcp.WithPromptDescription("Guide through sketching a subject with freehand strokes"),
		mcp.WithArgument("subject",
			mcp.ArgumentDescription("What to draw"),
			mcp.RequiredArgument(),
		),
	), s.handleSketchPrompt)
}

func (s *Server) handleSketchPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	subject := req.Params.Arguments["subject"]
	st := s.canvas.State()
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Sketch: %s", subject),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Sketch "%s" on the canvas (%dx%d pixels, origin top-left). Follow these steps:

1. Use get_canvas_image to see what is already there
2. Pick a colour and width with set_tool
3. Draw outlines first with draw_stroke, one call per continuous line, using many closely spaced points for curves
4. Add details and shading with thinner strokes
5. If a stroke looks wrong, call undo right away rather than painting over it
6. Check the result with get_canvas_image and finish with export_png if asked

Keep strokes inside the canvas bounds.`, subject, st.Width, st.Height),
				},
			},
		},
	}, nil
}
