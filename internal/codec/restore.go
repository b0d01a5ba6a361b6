package codec

import (
	"context"

	"sketchpad/internal/domain"
	"sketchpad/internal/surface"
)

// Pending is an in-flight restore. Decoding happens on its own goroutine
// and the decoded pixels are written to the surface before Done closes.
// A restore cannot be cancelled.
type Pending struct {
	done chan struct{}
	err  error
}

// Restore decodes snap and overwrites the whole raster of s with it. The
// caller must not touch s until the returned Pending is done. On failure
// Err returns a *domain.CodecError and the raster content is unspecified.
func Restore(snap domain.Snapshot, s *surface.Surface) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		img, err := Decode(snap)
		if err != nil {
			p.err = err
			return
		}
		s.Replace(img)
	}()
	return p
}

// Done is closed once the restore has finished.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Err reports the outcome. Only meaningful after Done is closed.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Wait blocks until the restore finishes or ctx ends. A context error only
// stops the wait; the restore keeps running.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
