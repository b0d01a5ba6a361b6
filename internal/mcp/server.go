package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"sketchpad/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server is the MCP server for Sketchpad.
// It exposes tools, resources, and prompts so AI agents can draw on the canvas.
type Server struct {
	// ctx is the app lifecycle context. Events go out on it, never on a
	// request context: the Wails runtime rejects any other context.
	ctx      context.Context
	mcp      *server.MCPServer
	httpMu   sync.Mutex
	http     *server.StreamableHTTPServer
	emitter  service.EventEmitter
	approval *ApprovalQueue
	canvas   *service.CanvasService

	// Where export_png writes when no path is given.
	exportDir string
	// Bounds how long a tool waits for an undo/redo restore.
	restoreTimeout time.Duration
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter   service.EventEmitter
	Canvas    *service.CanvasService
	ExportDir string
	// AutoApprove skips the human approval step for destructive tools.
	// Set in standalone mode, where no frontend can answer.
	AutoApprove bool
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.NopEmitter{}
	}
	approval := NewApprovalQueue(ctx, emitter)
	approval.SetAutoApprove(deps.AutoApprove)

	s := &Server{
		ctx:            ctx,
		emitter:        emitter,
		approval:       approval,
		canvas:         deps.Canvas,
		exportDir:      deps.ExportDir,
		restoreTimeout: 10 * time.Second,
	}

	s.mcp = server.NewMCPServer(
		"sketchpad-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCanvasTools()
	s.registerToolSelectionTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// ServeHTTP serves the streamable HTTP transport on addr until Shutdown.
// Used when the desktop app hosts the server, so approvals reach the UI.
func (s *Server) ServeHTTP(addr string) error {
	s.httpMu.Lock()
	srv := s.newHTTPTransport()
	s.http = srv
	s.httpMu.Unlock()

	log.Printf("[MCP] Listening on %s", addr)
	if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) newHTTPTransport() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp)
}

// Shutdown stops the HTTP transport, if running.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpMu.Lock()
	srv := s.http
	s.httpMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// emitCanvasChanged notifies the frontend that an agent changed the canvas.
func (s *Server) emitCanvasChanged(tool string) {
	s.emitter.Emit(s.ctx, "mcp:canvas-changed", map[string]string{"tool": tool})
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// withRestoreTimeout bounds waits on undo/redo restores.
func (s *Server) withRestoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.restoreTimeout)
}
