package pyramid

import (
	"fmt"
	"math"

	"github.com/kiesman99/pyramid/pkg/tile"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Filter names a resampling kernel
type Filter string

const (
	FilterLanczos    Filter = "lanczos"
	FilterCatmullRom Filter = "catmullrom"
	FilterBiLinear   Filter = "bilinear"
	FilterBox        Filter = "box"
)

// Lanczos3 is the windowed sinc kernel with three lobes
var Lanczos3 = &xdraw.Kernel{Support: 3, At: func(t float64) float64 {
	if t == 0 {
		return 1
	}
	if t >= 3 {
		return 0
	}
	pt := math.Pi * t
	return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
}}

// Box averages every source pixel that falls inside the destination pixel
var Box = &xdraw.Kernel{Support: 0.5, At: func(t float64) float64 {
	if t < 0.5 {
		return 1
	}
	return 0
}}

// Kernel returns the kernel for f
func (f Filter) Kernel() (*xdraw.Kernel, error) {
	switch f {
	case FilterLanczos, "":
		return Lanczos3, nil
	case FilterCatmullRom:
		return xdraw.CatmullRom, nil
	case FilterBiLinear:
		return xdraw.BiLinear, nil
	case FilterBox:
		return Box, nil
	}
	return nil, &tile.ConfigError{Field: "filter", Reason: fmt.Sprintf("unknown filter %q", f)}
}

// contribution lists the source pixels and normalized weights feeding one
// destination pixel along a single axis
type contribution struct {
	first   int
	weights []float32
}

// contributions computes the separable weights for resampling n source
// pixels to m destination pixels. Downscaling widens the kernel by the scale
// factor so every source pixel is accounted for.
func contributions(n, m int, k *xdraw.Kernel) []contribution {
	scale := float64(n) / float64(m)
	filterScale := math.Max(scale, 1)
	support := k.Support * filterScale

	out := make([]contribution, m)
	for i := range out {
		center := (float64(i)+0.5)*scale - 0.5
		lo := int(math.Ceil(center - support))
		hi := int(math.Floor(center + support))
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}

		weights := make([]float64, 0, hi-lo+1)
		var sum float64
		for j := lo; j <= hi; j++ {
			w := k.At(math.Abs(float64(j)-center) / filterScale)
			weights = append(weights, w)
			sum += w
		}

		c := contribution{first: lo, weights: make([]float32, len(weights))}
		if sum == 0 {
			// kernel missed every sample, fall back to the nearest one
			nearest := clamp(int(math.Round(center)), lo, hi)
			c.weights[nearest-lo] = 1
		} else {
			for j, w := range weights {
				c.weights[j] = float32(w / sum)
			}
		}
		out[i] = c
	}
	return out
}

// Resample scales the canvas to w×h with kernel k. Destination rows are
// split into bands computed by up to workers goroutines; the result does
// not depend on the band split.
func Resample(canvas *tile.Raster, w, h int, k *xdraw.Kernel, workers int) *tile.Raster {
	if w == canvas.Width && h == canvas.Height {
		return canvas
	}
	if workers < 1 {
		workers = 1
	}

	cols := contributions(canvas.Width, w, k)
	rows := contributions(canvas.Height, h, k)
	dst := &tile.Raster{Buf: make([]byte, w*h*4), Width: w, Height: h, Depth: 4}

	band := (h + workers - 1) / workers
	var g errgroup.Group
	for y0 := 0; y0 < h; y0 += band {
		y1 := y0 + band
		if y1 > h {
			y1 = h
		}
		y0 := y0
		g.Go(func() error {
			resampleBand(canvas, dst, cols, rows[y0:y1], y0)
			return nil
		})
	}
	_ = g.Wait()

	return dst
}

// resampleBand fills destination rows [y0, y0+len(rows)). Horizontally
// resampled source rows are cached only while the vertical window still
// needs them, which bounds memory to the kernel height times the
// destination width.
func resampleBand(src, dst *tile.Raster, cols, rows []contribution, y0 int) {
	rowLen := dst.Width * 4
	cache := make(map[int][]float32)
	var spare [][]float32

	horizontal := func(sy int) []float32 {
		if r, ok := cache[sy]; ok {
			return r
		}
		var r []float32
		if n := len(spare); n > 0 {
			r, spare = spare[n-1], spare[:n-1]
		} else {
			r = make([]float32, rowLen)
		}
		line := src.Buf[sy*src.Width*4 : (sy+1)*src.Width*4]
		for x, c := range cols {
			var pr, pg, pb, pa float32
			off := c.first * 4
			for _, wt := range c.weights {
				pr += wt * float32(line[off])
				pg += wt * float32(line[off+1])
				pb += wt * float32(line[off+2])
				pa += wt * float32(line[off+3])
				off += 4
			}
			r[x*4], r[x*4+1], r[x*4+2], r[x*4+3] = pr, pg, pb, pa
		}
		cache[sy] = r
		return r
	}

	acc := make([]float32, rowLen)
	for i, c := range rows {
		for sy := range cache {
			if sy < c.first {
				spare = append(spare, cache[sy])
				delete(cache, sy)
			}
		}

		for j := range acc {
			acc[j] = 0
		}
		for j, wt := range c.weights {
			r := horizontal(c.first + j)
			for x, v := range r {
				acc[x] += wt * v
			}
		}

		out := dst.Buf[(y0+i)*rowLen : (y0+i+1)*rowLen]
		for x, v := range acc {
			out[x] = toByte(v)
		}
	}
}

func toByte(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v + 0.5)
}
