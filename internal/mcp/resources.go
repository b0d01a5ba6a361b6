package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"sketchpad/internal/codec"
)

const (
	uriCanvasState = "sketchpad://canvas/state"
	uriCanvasImage = "sketchpad://canvas/image.png"
)

func (s *Server) registerResources() {
	// ── sketchpad://canvas/state ───────────────────────
	s.mcp.AddResource(mcp.NewResource(
		uriCanvasState,
		"Canvas State",
		mcp.WithResourceDescription("Size, tool and history depth of the canvas"),
		mcp.WithMIMEType("application/json"),
	), s.handleCanvasStateResource)

	// ── sketchpad://canvas/image.png ───────────────────
	s.mcp.AddResource(mcp.NewResource(
		uriCanvasImage,
		"Canvas Image",
		mcp.WithResourceDescription("The current canvas as a PNG"),
		mcp.WithMIMEType("image/png"),
	), s.handleCanvasImageResource)
}

func (s *Server) handleCanvasStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, _ := json.MarshalIndent(s.canvas.State(), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uriCanvasState,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleCanvasImageResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap, err := s.canvas.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := codec.PNGBytes(snap)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.BlobResourceContents{
			URI:      uriCanvasImage,
			MIMEType: "image/png",
			Blob:     encodeBase64(data),
		},
	}, nil
}
