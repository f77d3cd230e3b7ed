package tile

import (
	"fmt"
	"image"
	"image/color"

	"github.com/paulmach/orb/maptile"
)

// DefaultSize is the edge length of a tile in pixels
const DefaultSize = 256

// Background is the fill used for canvas margins and partial edge tiles
var Background = color.RGBA{0, 0, 0, 0xff}

// Raster holds a decoded RGBA pixel buffer
type Raster struct {
	Buf    []byte
	Width  int
	Height int
	Depth  int // bytes per pixel, always 4 (RGBA)
}

// NewRaster allocates a raster of the given size filled with bg
func NewRaster(width, height int, bg color.RGBA) *Raster {
	r := &Raster{
		Buf:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
		Depth:  4,
	}
	if bg != (color.RGBA{}) {
		px := []byte{bg.R, bg.G, bg.B, bg.A}
		for i := 0; i < len(r.Buf); i += 4 {
			copy(r.Buf[i:i+4], px)
		}
	}
	return r
}

// RasterFromRGBA wraps the pixels of img without copying when the image is
// already zero-origin and tightly packed.
func RasterFromRGBA(img *image.RGBA) *Raster {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx()*4 {
		return &Raster{Buf: img.Pix, Width: b.Dx(), Height: b.Dy(), Depth: 4}
	}
	r := NewRaster(b.Dx(), b.Dy(), color.RGBA{})
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(r.Buf[y*r.Width*4:(y+1)*r.Width*4], src[:b.Dx()*4])
	}
	return r
}

// RGBA returns an image view sharing the raster's buffer
func (r *Raster) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Buf,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Bounds returns the zero-origin rectangle covered by the raster
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// Opaque reports whether every pixel has full alpha
func (r *Raster) Opaque() bool {
	for i := 3; i < len(r.Buf); i += 4 {
		if r.Buf[i] != 0xff {
			return false
		}
	}
	return true
}

// MapConfig describes one map from the registry
type MapConfig struct {
	Namespace string
	Name      string
	// Size is the declared logical map size
	Size    image.Point
	MaxZoom int
	// Override replaces Size for crop decisions only
	Override *image.Point
	Variant  string
	Dir      string
	ImageURL string
}

// Validate checks the invariants the pyramid engine relies on
func (c MapConfig) Validate() error {
	switch {
	case c.Namespace == "":
		return &ConfigError{Field: "namespace", Reason: "must not be empty"}
	case c.Size.X <= 0 || c.Size.Y <= 0:
		return &ConfigError{Field: "size", Reason: fmt.Sprintf("declared size %dx%d must be positive", c.Size.X, c.Size.Y)}
	case c.MaxZoom < 0:
		return &ConfigError{Field: "max_zoom", Reason: fmt.Sprintf("%d is negative", c.MaxZoom)}
	case c.Override != nil && (c.Override.X <= 0 || c.Override.Y <= 0):
		return &ConfigError{Field: "crop_size", Reason: fmt.Sprintf("override %dx%d must be positive", c.Override.X, c.Override.Y)}
	}
	return nil
}

// CropSize returns the size used for crop decisions
func (c MapConfig) CropSize() image.Point {
	if c.Override != nil {
		return *c.Override
	}
	return c.Size
}

// Tile is one fixed-size square block of a pyramid level
type Tile struct {
	Namespace string
	Variant   string
	T         maptile.Tile
	Image     *image.RGBA
	Empty     bool
}

// Address returns a tile address for the given grid position
func Address(zoom, col, row int) maptile.Tile {
	return maptile.New(uint32(col), uint32(row), maptile.Zoom(zoom))
}

// Sink persists tiles. Put may be called concurrently for distinct tiles.
type Sink interface {
	Put(t *Tile) error
	Close() error
}
