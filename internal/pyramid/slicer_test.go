package pyramid

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/pyramid/pkg/tile"
)

func TestLevels(t *testing.T) {
	levels := Levels(512, 256, 2, 256)
	require.Len(t, levels, 3)

	assert.Equal(t, Level{Zoom: 0, Width: 128, Height: 64, Cols: 1, Rows: 1}, levels[0])
	assert.Equal(t, Level{Zoom: 1, Width: 256, Height: 128, Cols: 1, Rows: 1}, levels[1])
	assert.Equal(t, Level{Zoom: 2, Width: 512, Height: 256, Cols: 2, Rows: 1}, levels[2])
}

func TestLevelSize(t *testing.T) {
	for maxZoom := 0; maxZoom <= 8; maxZoom++ {
		for z := 0; z <= maxZoom; z++ {
			w, h := LevelSize(1<<12, 1<<10, maxZoom, z)
			assert.Equal(t, (1<<12)/(1<<(maxZoom-z)), w)
			assert.Equal(t, (1<<10)/(1<<(maxZoom-z)), h)
		}
		w, h := LevelSize(1<<12, 1<<10, maxZoom, maxZoom)
		assert.Equal(t, 1<<12, w)
		assert.Equal(t, 1<<10, h)
	}

	w, h := LevelSize(512, 256, 12, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestGrid(t *testing.T) {
	cols, rows := Grid(300, 150, 256)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 1, rows)

	cols, rows = Grid(1024, 512, 256)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, rows)

	cols, rows = Grid(1, 1, 256)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)
}

func TestSliceTilePartialEdge(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	level := tile.NewRaster(300, 150, red)

	img, empty := SliceTile(level, 1, 0, 256, tile.Background)
	require.Equal(t, 256, img.Bounds().Dx())
	require.Equal(t, 256, img.Bounds().Dy())
	assert.False(t, empty)

	// the 44x150 block sits at the tile origin
	assert.Equal(t, red, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(43, 149))
	// the remaining 212 columns and 106 rows are background
	assert.Equal(t, tile.Background, img.RGBAAt(44, 0))
	assert.Equal(t, tile.Background, img.RGBAAt(0, 150))
	assert.Equal(t, tile.Background, img.RGBAAt(255, 255))

	bg := 0
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			if img.RGBAAt(x, y) == tile.Background {
				bg++
			}
		}
	}
	assert.Equal(t, 256*256-44*150, bg)
}

func TestSliceTileCopiesInterior(t *testing.T) {
	level := gradient(512, 256)
	img, empty := SliceTile(level, 1, 0, 256, tile.Background)
	assert.False(t, empty)
	for _, p := range [][2]int{{0, 0}, {17, 200}, {255, 255}} {
		assert.Equal(t, pixel(level, 256+p[0], p[1]), img.RGBAAt(p[0], p[1]))
	}
}

func TestSliceTileEmpty(t *testing.T) {
	level := tile.NewRaster(512, 256, tile.Background)
	level.Buf[0] = 1

	_, empty := SliceTile(level, 0, 0, 256, tile.Background)
	assert.False(t, empty)

	_, empty = SliceTile(level, 1, 0, 256, tile.Background)
	assert.True(t, empty)
}
