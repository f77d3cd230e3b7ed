package pyramid

import (
	"image"
	"math"
)

// cropTolerance is how far, in pixels per axis, a decoded raster may differ
// from the declared size and still be taken as already matching.
const cropTolerance = 100

// ResolveGeometry decides which part of a w×h raster holds the map.
//
// A raster within cropTolerance of the declared size is used as is. A square
// raster for a non-square map is assumed to be padded to a square: the longer
// declared axis keeps the full raster length and the shorter one is scaled by
// the declared aspect ratio, anchored at the origin. Anything else is used
// uncropped. A non-nil override replaces declared for this decision.
func ResolveGeometry(w, h int, declared image.Point, override *image.Point) image.Rectangle {
	full := image.Rect(0, 0, w, h)
	if override != nil {
		declared = *override
	}
	if declared.X <= 0 || declared.Y <= 0 {
		return full
	}

	if abs(w-declared.X) < cropTolerance && abs(h-declared.Y) < cropTolerance {
		return full
	}

	if w != h || declared.X == declared.Y {
		return full
	}

	if declared.X > declared.Y {
		ratio := float64(declared.Y) / float64(declared.X)
		return image.Rect(0, 0, w, clamp(int(math.Round(float64(w)*ratio)), 1, h))
	}
	ratio := float64(declared.X) / float64(declared.Y)
	return image.Rect(0, 0, clamp(int(math.Round(float64(h)*ratio)), 1, w), h)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
