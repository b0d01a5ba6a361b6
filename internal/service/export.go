package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sketchpad/internal/domain"
)

// ExportSink receives an exported PNG. Implementations return
// domain.ErrExportCancelled when the user backs out.
type ExportSink interface {
	Write(ctx context.Context, name string, png []byte) error
}

// ExportSinkFunc adapts a function to ExportSink.
type ExportSinkFunc func(ctx context.Context, name string, png []byte) error

func (f ExportSinkFunc) Write(ctx context.Context, name string, png []byte) error {
	return f(ctx, name, png)
}

// FileSink writes to Path, or to Dir/name when Path is empty. The file is
// written next to its destination under a temporary name and renamed into
// place, so a reader never sees a partial PNG.
type FileSink struct {
	Path string
	Dir  string
}

func (f FileSink) Write(ctx context.Context, name string, png []byte) error {
	dest := f.Path
	if dest == "" {
		if f.Dir == "" {
			return domain.ErrExportCancelled
		}
		dest = filepath.Join(f.Dir, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(dest)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, png, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("move export into place: %w", err)
	}
	return nil
}
