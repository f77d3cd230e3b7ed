package pyramid

import (
	"image"
	"image/color"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// Level is one resolution step of the pyramid
type Level struct {
	Zoom   int
	Width  int
	Height int
	Cols   int
	Rows   int
}

// Tiles returns the number of tiles in the level's grid
func (l Level) Tiles() int {
	return l.Cols * l.Rows
}

// LevelSize returns the level dimensions for zoom: the canvas shifted right
// by maxZoom-zoom, never smaller than one pixel.
func LevelSize(canvasW, canvasH, maxZoom, zoom int) (int, int) {
	shift := uint(maxZoom - zoom)
	return max(canvasW>>shift, 1), max(canvasH>>shift, 1)
}

// Grid returns the number of tile columns and rows covering a level
func Grid(levelW, levelH, tileSize int) (int, int) {
	return (levelW + tileSize - 1) / tileSize, (levelH + tileSize - 1) / tileSize
}

// Levels lists every level from zoom 0 to maxZoom
func Levels(canvasW, canvasH, maxZoom, tileSize int) []Level {
	levels := make([]Level, 0, maxZoom+1)
	for z := 0; z <= maxZoom; z++ {
		w, h := LevelSize(canvasW, canvasH, maxZoom, z)
		cols, rows := Grid(w, h, tileSize)
		levels = append(levels, Level{Zoom: z, Width: w, Height: h, Cols: cols, Rows: rows})
	}
	return levels
}

// SliceTile extracts the tile at (col, row) from a level raster. Blocks at
// the right and bottom edges are padded to tileSize with bg, anchored at the
// block origin. empty reports whether every pixel equals bg.
func SliceTile(level *tile.Raster, col, row, tileSize int, bg color.RGBA) (img *image.RGBA, empty bool) {
	x0, y0 := col*tileSize, row*tileSize
	x1, y1 := min(x0+tileSize, level.Width), min(y0+tileSize, level.Height)
	bw, bh := x1-x0, y1-y0

	img = image.NewRGBA(image.Rect(0, 0, tileSize, tileSize))
	if bw < tileSize || bh < tileSize {
		fill(img.Pix, bg)
	}

	px := [4]byte{bg.R, bg.G, bg.B, bg.A}
	empty = true
	for y := 0; y < bh; y++ {
		src := level.Buf[((y0+y)*level.Width+x0)*4 : ((y0+y)*level.Width+x1)*4]
		copy(img.Pix[y*img.Stride:], src)
		if empty {
			for i := 0; i < len(src); i += 4 {
				if [4]byte(src[i:i+4]) != px {
					empty = false
					break
				}
			}
		}
	}
	return img, empty
}

func fill(buf []byte, c color.RGBA) {
	if len(buf) == 0 {
		return
	}
	copy(buf, []byte{c.R, c.G, c.B, c.A})
	for n := 4; n < len(buf); n *= 2 {
		copy(buf[n:], buf[:n])
	}
}
