package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"
	"time"

	"sketchpad/internal/codec"
	"sketchpad/internal/domain"
	"sketchpad/internal/history"
	"sketchpad/internal/surface"
)

// ErrBusy is returned when a raster mutation is attempted while a restore
// is running, or an undo/redo while a stroke is open.
var ErrBusy = errors.New("canvas busy")

// MaxStrokeWidth bounds SetWidth.
const MaxStrokeWidth = 200

// CanvasOptions sizes the surface and history of a new CanvasService.
type CanvasOptions struct {
	Width      int
	Height     int
	EraseColor string // empty means white
	MaxDepth   int    // 0 means unbounded
}

// CanvasState is the summary sent to the frontend and returned by State.
// Image is only filled in on events that change pixels.
type CanvasState struct {
	Image     domain.Snapshot  `json:"image,omitempty"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Tool      domain.ToolState `json:"tool"`
	CanUndo   bool             `json:"canUndo"`
	CanRedo   bool             `json:"canRedo"`
	UndoDepth int              `json:"undoDepth"`
	RedoDepth int              `json:"redoDepth"`
	Busy      bool             `json:"busy"`
}

// CanvasService is one drawing session: the surface, its history and the
// tool, persisted through a Gateway after every completed action.
//
// History keeps the state before each action. Rather than snapshotting
// on every mutation, the service tracks whether the live raster has moved
// past the top of the undo stack (dirty) and only pushes when it has.
// Undo first commits a dirty raster so the action being undone lands on
// the redo stack.
type CanvasService struct {
	mu      sync.Mutex
	ctx     context.Context
	surface *surface.Surface
	history *history.Manager
	tool    domain.ToolState
	gateway *Gateway
	emitter EventEmitter
	logger  *slog.Logger
	guard   restoreGuard

	stroking  bool
	last      domain.Point
	dirty     bool
	lastSaved domain.Snapshot
}

// NewCanvasService creates a session with a blank surface. Call Start to
// load persisted state.
func NewCanvasService(gateway *Gateway, emitter EventEmitter, logger *slog.Logger, opts CanvasOptions) (*CanvasService, error) {
	if gateway == nil {
		return nil, errors.New("canvas service: nil gateway")
	}
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	var erase color.Color
	if opts.EraseColor != "" {
		c, err := surface.ParseColor(opts.EraseColor)
		if err != nil {
			return nil, fmt.Errorf("canvas service: erase color: %w", err)
		}
		erase = c
	}
	s, err := surface.New(opts.Width, opts.Height, erase)
	if err != nil {
		return nil, fmt.Errorf("canvas service: %w", err)
	}
	return &CanvasService{
		ctx:     context.Background(),
		surface: s,
		history: history.New(codec.Blank(opts.Width, opts.Height), opts.MaxDepth),
		tool:    domain.DefaultToolState(),
		gateway: gateway,
		emitter: emitter,
		logger:  logger,
	}, nil
}

// ─────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────

// Start loads the persisted canvas, or seeds a blank one when the store is
// empty. ctx is kept for emitting events. A corrupt stored raster leaves
// the surface blank; the stacks are still installed.
func (c *CanvasService) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.stroking || c.guard.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.ctx = ctx
	blank := codec.Blank(c.surface.Width(), c.surface.Height())
	state, ok := c.gateway.Load(blank)
	if !ok {
		c.logger.Info("no saved canvas, starting blank")
		c.surface.Clear()
		c.history.Reset(blank)
		c.tool = domain.DefaultToolState()
		c.dirty = false
		snap := c.saveLocked()
		c.emitLocked(EventCanvasLoaded, c.stateLocked(snap))
		c.mu.Unlock()
		return nil
	}

	token, acquired := c.guard.TryAcquire()
	if !acquired {
		c.mu.Unlock()
		return ErrBusy
	}
	c.tool = state.Tool
	c.history.Replace(state.Undo, state.Redo, state.Surface)
	top, _ := c.history.Top()
	pending := codec.Restore(state.Surface, c.surface)
	c.mu.Unlock()

	c.logger.Info("canvas loaded", "undo", len(state.Undo), "redo", len(state.Redo))
	return c.await(ctx, token, "load", EventCanvasLoaded, pending, state.Surface != top)
}

// ─────────────────────────────────────────────────────────────
// Strokes
// ─────────────────────────────────────────────────────────────

// BeginStroke records the pre-stroke state and anchors the stroke at p.
// An open stroke is closed first.
func (c *CanvasService) BeginStroke(p domain.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guard.Busy() {
		return ErrBusy
	}
	if c.stroking {
		c.endStrokeLocked()
	}
	if err := c.checkpointLocked(); err != nil {
		return err
	}
	c.stroking = true
	c.last = p
	return nil
}

// StrokeTo draws a segment from the previous point to p. Ignored when no
// stroke is open.
func (c *CanvasService) StrokeTo(p domain.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stroking {
		return
	}
	c.surface.CompositeStroke(c.last, p, c.tool)
	c.last = p
	c.dirty = true
}

// EndStroke closes the open stroke and persists the result.
func (c *CanvasService) EndStroke() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endStrokeLocked()
}

func (c *CanvasService) endStrokeLocked() {
	if !c.stroking {
		return
	}
	c.stroking = false
	snap := c.saveLocked()
	c.emitLocked(EventCanvasUpdated, c.stateLocked(snap))
}

// Stroke draws a whole polyline as one undoable action.
func (c *CanvasService) Stroke(points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	if err := c.BeginStroke(points[0]); err != nil {
		return err
	}
	for _, p := range points[1:] {
		c.StrokeTo(p)
	}
	c.EndStroke()
	return nil
}

// Clear wipes the surface as one undoable action.
func (c *CanvasService) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.guard.Busy() {
		return ErrBusy
	}
	c.stroking = false
	if err := c.checkpointLocked(); err != nil {
		return err
	}
	c.surface.Clear()
	c.dirty = true
	snap := c.saveLocked()
	c.emitLocked(EventCanvasUpdated, c.stateLocked(snap))
	return nil
}

// checkpointLocked makes the undo top equal the live raster and drops the
// redo stack, ahead of a mutation.
func (c *CanvasService) checkpointLocked() error {
	if !c.dirty {
		c.history.DiscardRedo()
		return nil
	}
	snap, err := codec.Capture(c.surface)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	c.history.Checkpoint(snap)
	c.dirty = false
	return nil
}

// ─────────────────────────────────────────────────────────────
// Undo / Redo
// ─────────────────────────────────────────────────────────────

// Undo steps back one action. It reports false when there is nothing to
// undo. The restore runs in the background; Undo waits for it unless ctx
// ends first, in which case the restore still completes and is saved.
// A snapshot that fails to decode leaves a blank surface and the error is
// returned.
func (c *CanvasService) Undo(ctx context.Context) (bool, error) {
	return c.step(ctx, "undo", true, c.history.Undo)
}

// Redo re-applies the most recently undone action.
func (c *CanvasService) Redo(ctx context.Context) (bool, error) {
	return c.step(ctx, "redo", false, c.history.Redo)
}

func (c *CanvasService) step(ctx context.Context, op string, commit bool, move func() (domain.Snapshot, bool)) (bool, error) {
	c.mu.Lock()
	if c.stroking {
		c.mu.Unlock()
		return false, ErrBusy
	}
	token, ok := c.guard.TryAcquire()
	if !ok {
		c.mu.Unlock()
		return false, ErrBusy
	}
	if commit && c.dirty {
		if err := c.checkpointLocked(); err != nil {
			c.guard.Release(token)
			c.mu.Unlock()
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}
	snap, moved := move()
	if !moved {
		c.guard.Release(token)
		c.mu.Unlock()
		return false, nil
	}
	pending := codec.Restore(snap, c.surface)
	c.mu.Unlock()

	return true, c.await(ctx, token, op, EventCanvasUpdated, pending, false)
}

// await finishes a restore on its own goroutine so the guard is released
// even if the caller stops waiting.
func (c *CanvasService) await(ctx context.Context, token uint64, op, event string, pending *codec.Pending, dirty bool) error {
	done := make(chan error, 1)
	go func() {
		err := pending.Wait(context.Background())
		done <- c.finishRestore(token, op, event, err, dirty)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CanvasService) finishRestore(token uint64, op, event string, restoreErr error, dirty bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.guard.Release(token)

	c.dirty = dirty
	if restoreErr != nil {
		c.logger.Warn("restore failed, clearing canvas", "op", op, "error", restoreErr)
		c.surface.Clear()
		c.dirty = false
		c.emitLocked(EventRestoreFailed, restoreErr.Error())
	}
	snap := c.saveLocked()
	c.emitLocked(event, c.stateLocked(snap))
	if restoreErr != nil {
		return fmt.Errorf("%s: %w", op, restoreErr)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────
// Tool selection
// ─────────────────────────────────────────────────────────────

// ToolUpdate is a set of tool changes applied together. Zero fields are
// left alone.
type ToolUpdate struct {
	Color   string
	Width   *float64
	Erasing *bool
}

// UpdateTool validates every field of u before changing anything, then
// applies them with a single save. A colour switches back to the pencil
// unless u also sets Erasing.
func (c *CanvasService) UpdateTool(u ToolUpdate) error {
	if u.Color != "" {
		if _, err := surface.ParseColor(u.Color); err != nil {
			return fmt.Errorf("select color: %w", err)
		}
	}
	if u.Width != nil {
		if w := *u.Width; math.IsNaN(w) || w <= 0 || w > MaxStrokeWidth {
			return fmt.Errorf("stroke width %v out of range (0,%d]", w, MaxStrokeWidth)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.Color != "" {
		c.tool.Color = u.Color
		c.tool.Erasing = false
	}
	if u.Width != nil {
		c.tool.Width = *u.Width
	}
	if u.Erasing != nil {
		c.tool.Erasing = *u.Erasing
	}
	c.toolChangedLocked()
	return nil
}

// SelectColor sets the stroke colour and switches back to the pencil.
func (c *CanvasService) SelectColor(name string) error {
	return c.UpdateTool(ToolUpdate{Color: name})
}

// SelectWidthPreset picks one of domain.WidthPresets by index.
func (c *CanvasService) SelectWidthPreset(i int) error {
	w, err := PresetWidth(i)
	if err != nil {
		return err
	}
	return c.SetWidth(w)
}

// PresetWidth returns the width of preset i.
func PresetWidth(i int) (float64, error) {
	if i < 0 || i >= len(domain.WidthPresets) {
		return 0, fmt.Errorf("width preset %d out of range [0,%d)", i, len(domain.WidthPresets))
	}
	return domain.WidthPresets[i], nil
}

// SetWidth sets an arbitrary stroke width in (0, MaxStrokeWidth].
func (c *CanvasService) SetWidth(w float64) error {
	return c.UpdateTool(ToolUpdate{Width: &w})
}

// SelectPencil turns the eraser off.
func (c *CanvasService) SelectPencil() {
	off := false
	_ = c.UpdateTool(ToolUpdate{Erasing: &off})
}

// SelectEraser turns the eraser on. The colour is kept for later.
func (c *CanvasService) SelectEraser() {
	on := true
	_ = c.UpdateTool(ToolUpdate{Erasing: &on})
}

func (c *CanvasService) toolChangedLocked() {
	if err := c.gateway.SaveTool(c.tool); err != nil {
		c.logger.Warn("tool save dropped", "error", err)
	}
	c.emitLocked(EventToolChanged, c.tool)
}

// ─────────────────────────────────────────────────────────────
// Viewport, settings, reads
// ─────────────────────────────────────────────────────────────

// Resize changes the raster size, keeping the overlapping pixels. It is
// not recorded in history.
func (c *CanvasService) Resize(width, height int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stroking || c.guard.Busy() {
		return ErrBusy
	}
	if width == c.surface.Width() && height == c.surface.Height() {
		return nil
	}
	if err := c.surface.Resize(width, height); err != nil {
		return fmt.Errorf("resize canvas: %w", err)
	}
	c.emitLocked(EventCanvasResized, c.stateLocked(""))
	return nil
}

// SetMaxDepth changes the undo cap. Extra entries are evicted on the next
// checkpoint.
func (c *CanvasService) SetMaxDepth(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.SetMaxDepth(n)
}

// SetEraseColor changes the colour the eraser paints with.
func (c *CanvasService) SetEraseColor(name string) error {
	col, err := surface.ParseColor(name)
	if err != nil {
		return fmt.Errorf("erase color: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.SetEraseColor(col)
	return nil
}

// ExternallyModified reports whether the stored canvas differs from the
// last one this session saved, meaning another process wrote to the store.
func (c *CanvasService) ExternallyModified() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSaved == "" {
		return false
	}
	stored, ok := c.gateway.StoredSurface()
	return ok && stored != c.lastSaved
}

// Reload discards in-memory state and loads the store again.
func (c *CanvasService) Reload(ctx context.Context) error {
	return c.Start(ctx)
}

// State returns the current summary without the image.
func (c *CanvasService) State() CanvasState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked("")
}

// Snapshot captures the live raster, waiting out any running restore.
func (c *CanvasService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	var (
		snap domain.Snapshot
		err  error
	)
	if werr := c.whenIdle(ctx, func() { snap, err = codec.Capture(c.surface) }); werr != nil {
		return "", werr
	}
	return snap, err
}

// Export writes the live raster as PNG to sink. Failures are logged and
// emitted as EventExportFailed; a cancelled export is silent. It reports
// whether a file was written.
func (c *CanvasService) Export(ctx context.Context, sink ExportSink) bool {
	var img image.Image
	if err := c.whenIdle(ctx, func() { img = c.surface.Image() }); err != nil {
		c.logger.Warn("export aborted", "error", err)
		return false
	}
	name := "sketch-" + time.Now().Format("20060102-150405") + ".png"
	if err := c.gateway.Export(ctx, img, name, sink); err != nil {
		if errors.Is(err, domain.ErrExportCancelled) {
			c.logger.Info("export cancelled")
			return false
		}
		c.logger.Warn("export failed", "error", err)
		c.emit(EventExportFailed, err.Error())
		return false
	}
	c.emit(EventExported, name)
	return true
}

// whenIdle runs fn under the session lock once no restore is in flight.
func (c *CanvasService) whenIdle(ctx context.Context, fn func()) error {
	for {
		c.mu.Lock()
		if !c.guard.Busy() {
			fn()
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		c.guard.WaitAll(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// ─────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────

// saveLocked persists everything and returns the captured raster. Save
// failures are logged and dropped.
func (c *CanvasService) saveLocked() domain.Snapshot {
	snap, err := codec.Capture(c.surface)
	if err != nil {
		c.logger.Warn("capture for save failed", "error", err)
		return ""
	}
	err = c.gateway.Save(domain.PersistedState{
		Surface: snap,
		Undo:    c.history.UndoStack(),
		Redo:    c.history.RedoStack(),
		Tool:    c.tool,
	})
	if err != nil {
		c.logger.Warn("canvas save dropped", "error", err)
	} else {
		c.lastSaved = snap
	}
	return snap
}

func (c *CanvasService) stateLocked(img domain.Snapshot) CanvasState {
	undo := len(c.history.UndoStack())
	redo := len(c.history.RedoStack())
	return CanvasState{
		Image:     img,
		Width:     c.surface.Width(),
		Height:    c.surface.Height(),
		Tool:      c.tool,
		CanUndo:   c.history.CanUndo() || c.dirty,
		CanRedo:   c.history.CanRedo(),
		UndoDepth: undo,
		RedoDepth: redo,
		Busy:      c.guard.Busy(),
	}
}

func (c *CanvasService) emitLocked(event string, data any) {
	c.emitter.Emit(c.ctx, event, data)
}

func (c *CanvasService) emit(event string, data any) {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()
	c.emitter.Emit(ctx, event, data)
}
