package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strconv"

	"sketchpad/internal/domain"
	"sketchpad/internal/surface"
)

// ─────────────────────────────────────────────────────────────
// Persistence Gateway
// ─────────────────────────────────────────────────────────────
//
// Saves and restores the canvas, both history stacks and the tool state
// as plain string rows in a KVStore. Keys are written one at a time, so a
// crash between writes can leave a mix of old and new values; Load copes
// with that by falling back per field.

const (
	keyCanvasImage  = "canvasImage"
	keyUndoStack    = "undoStack"
	keyRedoStack    = "redoStack"
	keyCurrentColor = "currentColor"
	keyPencilSize   = "pencilSize"
	keyErasing      = "erasing"
)

// Gateway reads and writes PersistedState through a KVStore.
type Gateway struct {
	store     domain.KVStore
	namespace string
	logger    *slog.Logger
}

// NewGateway creates a Gateway. An empty namespace writes bare keys.
func NewGateway(store domain.KVStore, namespace string, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{store: store, namespace: namespace, logger: logger}
}

func (g *Gateway) key(name string) string {
	if g.namespace == "" {
		return name
	}
	return g.namespace + "." + name
}

// Save writes every field of state. It keeps going after a failed write and
// returns the joined failures wrapped in domain.ErrStoreUnavailable.
func (g *Gateway) Save(state domain.PersistedState) error {
	undo, err := json.Marshal(stackOrEmpty(state.Undo))
	if err != nil {
		return fmt.Errorf("encode undo stack: %w", err)
	}
	redo, err := json.Marshal(stackOrEmpty(state.Redo))
	if err != nil {
		return fmt.Errorf("encode redo stack: %w", err)
	}

	errs := g.write(
		keyCanvasImage, string(state.Surface),
		keyUndoStack, string(undo),
		keyRedoStack, string(redo),
	)
	errs = append(errs, g.writeTool(state.Tool)...)
	return g.storeError("save canvas", errs)
}

// SaveTool writes only the tool fields.
func (g *Gateway) SaveTool(tool domain.ToolState) error {
	return g.storeError("save tool", g.writeTool(tool))
}

func (g *Gateway) writeTool(tool domain.ToolState) []error {
	return g.write(
		keyCurrentColor, tool.Color,
		keyPencilSize, strconv.FormatFloat(tool.Width, 'f', -1, 64),
		keyErasing, strconv.FormatBool(tool.Erasing),
	)
}

// write takes alternating key, value pairs.
func (g *Gateway) write(kv ...string) []error {
	if g.store == nil {
		return []error{errors.New("no store")}
	}
	var errs []error
	for i := 0; i+1 < len(kv); i += 2 {
		k := g.key(kv[i])
		if err := g.store.Set(k, kv[i+1]); err != nil {
			g.logger.Warn("persist key failed", "key", k, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		}
	}
	return errs
}

func (g *Gateway) storeError(op string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, errors.Join(errs...))
}

// Load reads the persisted state. Missing or corrupt fields fall back to
// their defaults: blank for the surface, [surface] for the undo stack, an
// empty redo stack and DefaultToolState. ok is false when no key was found
// at all, in which case the caller should seed a fresh canvas.
func (g *Gateway) Load(blank domain.Snapshot) (domain.PersistedState, bool) {
	state := domain.PersistedState{Surface: blank, Tool: domain.DefaultToolState()}
	found := false

	if v, ok := g.read(keyCanvasImage); ok {
		found = true
		if v != "" {
			state.Surface = domain.Snapshot(v)
		}
	}
	if v, ok := g.read(keyUndoStack); ok {
		found = true
		state.Undo = g.decodeStack(keyUndoStack, v)
	}
	if len(state.Undo) == 0 {
		state.Undo = []domain.Snapshot{state.Surface}
	}
	if v, ok := g.read(keyRedoStack); ok {
		found = true
		state.Redo = g.decodeStack(keyRedoStack, v)
	}

	if v, ok := g.read(keyCurrentColor); ok {
		found = true
		if _, err := surface.ParseColor(v); err == nil {
			state.Tool.Color = v
		} else {
			g.logger.Warn("ignoring stored color", "value", v, "error", err)
		}
	}
	if v, ok := g.read(keyPencilSize); ok {
		found = true
		if w, err := strconv.ParseFloat(v, 64); err == nil && w > 0 {
			state.Tool.Width = w
		} else {
			g.logger.Warn("ignoring stored pencil size", "value", v)
		}
	}
	if v, ok := g.read(keyErasing); ok {
		found = true
		state.Tool.Erasing = v == "true"
	}
	return state, found
}

// StoredSurface returns the persisted raster without decoding anything.
func (g *Gateway) StoredSurface() (domain.Snapshot, bool) {
	v, ok := g.read(keyCanvasImage)
	if !ok || v == "" {
		return "", false
	}
	return domain.Snapshot(v), true
}

// read treats store failures as a missing key.
func (g *Gateway) read(name string) (string, bool) {
	if g.store == nil {
		return "", false
	}
	k := g.key(name)
	v, ok, err := g.store.Get(k)
	if err != nil {
		g.logger.Warn("load key failed", "key", k, "error", fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err))
		return "", false
	}
	return v, ok
}

func (g *Gateway) decodeStack(name, raw string) []domain.Snapshot {
	var stack []domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &stack); err != nil {
		g.logger.Warn("ignoring corrupt stack", "key", g.key(name), "error", err)
		return nil
	}
	out := stack[:0]
	for _, s := range stack {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stackOrEmpty(s []domain.Snapshot) []domain.Snapshot {
	if s == nil {
		return []domain.Snapshot{}
	}
	return s
}

// Export encodes img as PNG and hands it to sink under name.
func (g *Gateway) Export(ctx context.Context, img image.Image, name string, sink ExportSink) error {
	if sink == nil {
		return fmt.Errorf("export: %w", domain.ErrExportCancelled)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("export: %w", &domain.CodecError{Op: "encode", Err: err})
	}
	if err := sink.Write(ctx, name, buf.Bytes()); err != nil {
		return fmt.Errorf("export %s: %w", name, err)
	}
	return nil
}
