package pyramid

import (
	"image"
	"image/color"
	"math/bits"

	"github.com/kiesman99/pyramid/pkg/tile"
	xdraw "golang.org/x/image/draw"
)

// CanvasMode selects how the cropped raster is padded
type CanvasMode string

const (
	// CanvasIndependent pads width and height to their own power of two
	CanvasIndependent CanvasMode = "independent"
	// CanvasSquare pads both axes to the power of two of the larger one and
	// never crops. Kept for tile sets generated by the older pipeline.
	CanvasSquare CanvasMode = "square"
)

// NextPow2 returns the smallest power of two >= n, and 1 for n <= 0
func NextPow2(n int) int {
	if n <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// CanvasSize returns the padded canvas dimensions for a w×h raster
func CanvasSize(w, h int, mode CanvasMode) (int, int) {
	cw, ch := NextPow2(w), NextPow2(h)
	if mode == CanvasSquare {
		if cw < ch {
			cw = ch
		}
		ch = cw
	}
	return cw, ch
}

// PadCanvas copies the crop region of src to the origin of a power-of-two
// canvas filled with bg. Pixels with alpha are composited over bg. src is
// returned unchanged when it is already an opaque canvas of the right size.
func PadCanvas(src *tile.Raster, crop image.Rectangle, mode CanvasMode, bg color.RGBA) *tile.Raster {
	crop = crop.Intersect(src.Bounds())
	cw, ch := CanvasSize(crop.Dx(), crop.Dy(), mode)

	opaque := src.Opaque()
	if opaque && crop == src.Bounds() && cw == src.Width && ch == src.Height {
		return src
	}

	canvas := tile.NewRaster(cw, ch, bg)
	op := xdraw.Over
	if opaque {
		op = xdraw.Src
	}
	xdraw.Draw(canvas.RGBA(), image.Rect(0, 0, crop.Dx(), crop.Dy()), src.RGBA(), crop.Min, op)
	return canvas
}
