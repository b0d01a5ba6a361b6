package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCodec is matched by every *CodecError.
	ErrCodec = errors.New("snapshot codec failure")
	// ErrStoreUnavailable reports a failed read or write on the durable store.
	ErrStoreUnavailable = errors.New("durable store unavailable")
	// ErrExportCancelled is returned by export sinks when the user aborts.
	ErrExportCancelled = errors.New("export cancelled")
)

// CodecError describes an encode or decode failure. Raster content touched
// by the failed operation is unspecified afterwards.
type CodecError struct {
	Op  string // "encode" or "decode"
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Is(target error) bool { return target == ErrCodec }
