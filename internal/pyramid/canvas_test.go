package pyramid

import (
	"image"
	"image/color"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/pyramid/pkg/tile"
)

func TestNextPow2(t *testing.T) {
	assert.Equal(t, 1, NextPow2(0))
	assert.Equal(t, 1, NextPow2(-5))
	assert.Equal(t, 1, NextPow2(1))
	assert.Equal(t, 2, NextPow2(2))
	assert.Equal(t, 4, NextPow2(3))
	assert.Equal(t, 512, NextPow2(300))
	assert.Equal(t, 256, NextPow2(150))
	assert.Equal(t, 1<<15, NextPow2(20000))

	for n := 1; n <= 1<<14; n++ {
		p := NextPow2(n)
		require.Equal(t, 1, bits.OnesCount(uint(p)), "NextPow2(%d)=%d is not a power of two", n, p)
		require.GreaterOrEqual(t, p, n)
		require.Less(t, p, 2*n)
	}
}

func TestCanvasSize(t *testing.T) {
	w, h := CanvasSize(300, 150, CanvasIndependent)
	assert.Equal(t, 512, w)
	assert.Equal(t, 256, h)

	w, h = CanvasSize(300, 150, CanvasSquare)
	assert.Equal(t, 512, w)
	assert.Equal(t, 512, h)

	w, h = CanvasSize(100, 600, CanvasSquare)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 1024, h)
}

func gradient(w, h int) *tile.Raster {
	r := tile.NewRaster(w, h, color.RGBA{})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			r.Buf[i], r.Buf[i+1], r.Buf[i+2], r.Buf[i+3] = byte(x), byte(y), 77, 0xff
		}
	}
	return r
}

func pixel(r *tile.Raster, x, y int) color.RGBA {
	i := (y*r.Width + x) * 4
	return color.RGBA{r.Buf[i], r.Buf[i+1], r.Buf[i+2], r.Buf[i+3]}
}

func TestPadCanvas(t *testing.T) {
	src := gradient(300, 300)
	crop := image.Rect(0, 0, 300, 150)

	canvas := PadCanvas(src, crop, CanvasIndependent, tile.Background)
	require.Equal(t, 512, canvas.Width)
	require.Equal(t, 256, canvas.Height)

	assert.Equal(t, pixel(src, 0, 0), pixel(canvas, 0, 0))
	assert.Equal(t, pixel(src, 299, 149), pixel(canvas, 299, 149))
	assert.Equal(t, tile.Background, pixel(canvas, 300, 0))
	assert.Equal(t, tile.Background, pixel(canvas, 0, 150))
	assert.Equal(t, tile.Background, pixel(canvas, 511, 255))
}

func TestPadCanvasReusesPowerOfTwoSource(t *testing.T) {
	src := gradient(256, 128)
	canvas := PadCanvas(src, src.Bounds(), CanvasIndependent, tile.Background)
	assert.Same(t, src, canvas)
}

func TestPadCanvasSquareMode(t *testing.T) {
	src := gradient(300, 150)
	canvas := PadCanvas(src, src.Bounds(), CanvasSquare, tile.Background)
	assert.Equal(t, 512, canvas.Width)
	assert.Equal(t, 512, canvas.Height)
	assert.Equal(t, tile.Background, pixel(canvas, 0, 300))
}

func TestPadCanvasFlattensAlpha(t *testing.T) {
	src := tile.NewRaster(3, 1, color.RGBA{})
	// premultiplied half-transparent white, fully transparent, opaque red
	copy(src.Buf, []byte{0x80, 0x80, 0x80, 0x80, 0, 0, 0, 0, 0xff, 0, 0, 0xff})

	canvas := PadCanvas(src, src.Bounds(), CanvasIndependent, tile.Background)
	require.Equal(t, 4, canvas.Width)
	assert.Equal(t, color.RGBA{0x80, 0x80, 0x80, 0xff}, pixel(canvas, 0, 0))
	assert.Equal(t, tile.Background, pixel(canvas, 1, 0))
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, pixel(canvas, 2, 0))
	assert.True(t, canvas.Opaque())
}
