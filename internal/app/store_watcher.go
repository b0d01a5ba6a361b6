package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"sketchpad/internal/service"
)

// storeWatcher polls the store for canvas writes made by another process
// (e.g. the MCP standalone server) and reloads the session so the
// frontend auto-refreshes.
type storeWatcher struct {
	ctx      context.Context
	canvas   *service.CanvasService
	emitter  service.EventEmitter
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func newStoreWatcher(ctx context.Context, canvas *service.CanvasService, emitter service.EventEmitter, interval time.Duration) *storeWatcher {
	return &storeWatcher{
		ctx:      ctx,
		canvas:   canvas,
		emitter:  emitter,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *storeWatcher) Start() {
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it to exit.
func (w *storeWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.done
}

func (w *storeWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

// check reloads once per external change. A busy canvas is retried on the
// next tick.
func (w *storeWatcher) check() bool {
	if !w.canvas.ExternallyModified() {
		return false
	}
	if err := w.canvas.Reload(w.ctx); errors.Is(err, service.ErrBusy) {
		return false
	}
	w.emitter.Emit(w.ctx, service.EventExternalChange, nil)
	return true
}
