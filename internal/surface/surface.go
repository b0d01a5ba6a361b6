// Package surface holds the live raster the user draws on.
//
// A Surface is not safe for concurrent use. The canvas session serializes
// every call, including the pixel write at the end of a snapshot restore.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"sketchpad/internal/domain"
)

// DefaultEraseColor is what the eraser paints with.
var DefaultEraseColor color.Color = color.White

// Surface is a fixed-size RGBA raster backed by a gg drawing context.
type Surface struct {
	dc         *gg.Context
	eraseColor color.Color
}

// New creates a blank, fully transparent surface.
func New(width, height int, eraseColor color.Color) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new surface: invalid dimensions %dx%d", width, height)
	}
	if eraseColor == nil {
		eraseColor = DefaultEraseColor
	}
	dc := gg.NewContext(width, height)
	dc.Clear()
	return &Surface{dc: dc, eraseColor: eraseColor}, nil
}

// Width returns the raster width in device pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the raster height in device pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// SetEraseColor changes the colour painted while erasing.
func (s *Surface) SetEraseColor(c color.Color) {
	if c != nil {
		s.eraseColor = c
	}
}

// CompositeStroke draws a round-capped, round-joined segment from `from` to
// `to`. Coordinates outside the raster are clipped. An unparseable tool
// colour falls back to black.
func (s *Surface) CompositeStroke(from, to domain.Point, tool domain.ToolState) {
	col := s.eraseColor
	if !tool.Erasing {
		c, err := ParseColor(tool.Color)
		if err != nil {
			c = color.Black
		}
		col = c
	}
	width := tool.Width
	if width <= 0 {
		width = domain.DefaultWidth
	}

	s.dc.SetColor(col)
	s.dc.SetLineWidth(width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)
	s.dc.DrawLine(from.X, from.Y, to.X, to.Y)
	// The CPU rasterizer does not fail on a two-point path.
	_ = s.dc.Stroke()
}

// Clear resets every pixel to fully transparent.
func (s *Surface) Clear() {
	s.dc.Clear()
}

// Resize changes the raster dimensions. Pixels inside both the old and the
// new bounds are kept at the same coordinates; the rest is lost.
// Must not be called while a stroke is in progress.
func (s *Surface) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize surface: invalid dimensions %dx%d", width, height)
	}
	if width == s.Width() && height == s.Height() {
		return nil
	}
	prev := s.Image()
	if err := s.dc.Resize(width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	s.dc.Clear()
	s.blit(prev)
	return nil
}

// Image returns a copy of the current raster.
func (s *Surface) Image() *image.RGBA {
	pm := s.dc.ResizeTarget()
	img := image.NewRGBA(image.Rect(0, 0, pm.Width(), pm.Height()))
	copy(img.Pix, pm.Data())
	return img
}

// Replace overwrites the entire raster with img anchored at (0,0). Areas the
// image does not cover become transparent.
func (s *Surface) Replace(img image.Image) {
	dst := image.NewRGBA(image.Rect(0, 0, s.Width(), s.Height()))
	xdraw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, xdraw.Src)
	copy(s.dc.ResizeTarget().Data(), dst.Pix)
}

// EncodePNG writes the raster as a PNG image.
func (s *Surface) EncodePNG(w io.Writer) error {
	return s.dc.EncodePNG(w)
}

// blit copies the overlapping rows of src into the raster at (0,0).
func (s *Surface) blit(src *image.RGBA) {
	pm := s.dc.ResizeTarget()
	data := pm.Data()
	stride := pm.Width() * 4

	w := min(pm.Width(), src.Rect.Dx())
	h := min(pm.Height(), src.Rect.Dy())
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		copy(data[y*stride:y*stride+w*4], row)
	}
}
