package pyramid

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/pyramid/pkg/tile"
)

func TestFilterKernel(t *testing.T) {
	for _, f := range []Filter{FilterLanczos, FilterCatmullRom, FilterBiLinear, FilterBox, ""} {
		k, err := f.Kernel()
		require.NoError(t, err, f)
		assert.NotNil(t, k)
	}

	_, err := Filter("sinc").Kernel()
	var cerr *tile.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestContributionsNormalized(t *testing.T) {
	for _, tc := range [][2]int{{512, 256}, {512, 1}, {300, 7}, {4, 2}} {
		for _, c := range contributions(tc[0], tc[1], Lanczos3) {
			var sum float32
			for _, w := range c.weights {
				sum += w
			}
			assert.InDelta(t, 1, sum, 1e-5)
			assert.GreaterOrEqual(t, c.first, 0)
			assert.LessOrEqual(t, c.first+len(c.weights), tc[0])
		}
	}
}

func TestResampleConstantStaysConstant(t *testing.T) {
	c := color.RGBA{50, 100, 150, 0xff}
	src := tile.NewRaster(64, 64, c)

	for _, f := range []Filter{FilterLanczos, FilterCatmullRom, FilterBiLinear, FilterBox} {
		k, err := f.Kernel()
		require.NoError(t, err)
		dst := Resample(src, 16, 8, k, 3)
		require.Equal(t, 16, dst.Width)
		require.Equal(t, 8, dst.Height)
		for y := 0; y < dst.Height; y++ {
			for x := 0; x < dst.Width; x++ {
				require.Equal(t, c, pixel(dst, x, y), "%s at (%d,%d)", f, x, y)
			}
		}
	}
}

func TestResampleBoxAverages(t *testing.T) {
	src := tile.NewRaster(4, 2, tile.Background)
	for i, v := range []byte{10, 20, 30, 40, 30, 40, 50, 60} {
		src.Buf[i*4] = v
	}

	dst := Resample(src, 2, 1, Box, 1)
	assert.Equal(t, color.RGBA{25, 0, 0, 0xff}, pixel(dst, 0, 0))
	assert.Equal(t, color.RGBA{45, 0, 0, 0xff}, pixel(dst, 1, 0))
}

func TestResampleIndependentOfWorkers(t *testing.T) {
	src := gradient(256, 192)
	one := Resample(src, 64, 48, Lanczos3, 1)
	for _, workers := range []int{2, 5, 48, 100} {
		got := Resample(src, 64, 48, Lanczos3, workers)
		assert.Equal(t, one.Buf, got.Buf, "workers=%d", workers)
	}
}

func TestResampleSameSize(t *testing.T) {
	src := gradient(32, 32)
	assert.Same(t, src, Resample(src, 32, 32, Lanczos3, 2))
}
