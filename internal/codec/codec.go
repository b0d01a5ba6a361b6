// Package codec converts between a Surface and portable Snapshot values.
//
// Snapshots are data URLs. Capture always produces PNG; Decode also accepts
// WebP and BMP so snapshots written by other tools can be restored.
package codec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"sketchpad/internal/domain"
	"sketchpad/internal/surface"
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/png":  png.Decode,
	"image/webp": webp.Decode,
	"image/bmp":  bmp.Decode,
}

// Capture encodes the full current raster. The returned snapshot reflects
// the surface at the moment of the call.
func Capture(s *surface.Surface) (domain.Snapshot, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return "", &domain.CodecError{Op: "encode", Err: err}
	}
	return fromPNG(buf.Bytes()), nil
}

// Blank returns the snapshot of a fully transparent width x height raster.
func Blank(width, height int) domain.Snapshot {
	var buf bytes.Buffer
	// png.Encode cannot fail on an in-memory *image.RGBA.
	_ = png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height)))
	return fromPNG(buf.Bytes())
}

// PNGBytes returns the raw PNG payload of a PNG snapshot.
func PNGBytes(snap domain.Snapshot) ([]byte, error) {
	mediaType, payload, err := split(snap)
	if err != nil {
		return nil, err
	}
	if mediaType != "image/png" {
		return nil, &domain.CodecError{Op: "decode", Err: fmt.Errorf("media type %q is not image/png", mediaType)}
	}
	return payload, nil
}

// Decode parses a snapshot into an image.
func Decode(snap domain.Snapshot) (image.Image, error) {
	mediaType, payload, err := split(snap)
	if err != nil {
		return nil, err
	}
	dec, ok := decoders[mediaType]
	if !ok {
		return nil, &domain.CodecError{Op: "decode", Err: fmt.Errorf("unsupported media type %q", mediaType)}
	}
	img, err := dec(bytes.NewReader(payload))
	if err != nil {
		return nil, &domain.CodecError{Op: "decode", Err: err}
	}
	return img, nil
}

func fromPNG(data []byte) domain.Snapshot {
	return domain.Snapshot(domain.SnapshotPrefixPNG + base64.StdEncoding.EncodeToString(data))
}

// split separates "data:<type>;base64,<payload>" into type and decoded payload.
func split(snap domain.Snapshot) (string, []byte, error) {
	s := string(snap)
	if !strings.HasPrefix(s, "data:") {
		return "", nil, &domain.CodecError{Op: "decode", Err: errors.New("not a data URL")}
	}
	header, body, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, &domain.CodecError{Op: "decode", Err: errors.New("data URL has no payload")}
	}
	mediaType, enc, _ := strings.Cut(header, ";")
	if enc != "base64" {
		return "", nil, &domain.CodecError{Op: "decode", Err: fmt.Errorf("unsupported data URL encoding %q", enc)}
	}
	payload, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, &domain.CodecError{Op: "decode", Err: err}
	}
	return strings.ToLower(mediaType), payload, nil
}
