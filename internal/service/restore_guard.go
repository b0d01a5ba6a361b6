package service

import (
	"context"
	"sync"
)

// ExportedRestoreGuard is an exported alias so _test packages can test the guard.
type ExportedRestoreGuard = restoreGuard

// ─────────────────────────────────────────────────────────────
// restoreGuard: at most one snapshot restore in flight
// ─────────────────────────────────────────────────────────────

// restoreGuard hands a token to the single restore allowed to run. While a
// token is out, the canvas refuses raster mutations so a late decode can
// never land on top of newer pixels.
type restoreGuard struct {
	mu    sync.Mutex
	seq   uint64
	token uint64        // 0 when idle
	done  chan struct{} // closed on Release
}

// TryAcquire returns a fresh token, or false if a restore is already running.
func (g *restoreGuard) TryAcquire() (uint64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.token != 0 {
		return 0, false
	}
	g.seq++
	g.token = g.seq
	g.done = make(chan struct{})
	return g.token, true
}

// Release ends the restore holding token. Stale or zero tokens are ignored.
func (g *restoreGuard) Release(token uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if token == 0 || token != g.token {
		return
	}
	g.token = 0
	close(g.done)
	g.done = nil
}

// Busy reports whether a restore is in flight.
func (g *restoreGuard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token != 0
}

// WaitAll blocks until the in-flight restore completes or ctx is cancelled.
func (g *restoreGuard) WaitAll(ctx context.Context) {
	g.mu.Lock()
	done := g.done
	g.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
	}
}
