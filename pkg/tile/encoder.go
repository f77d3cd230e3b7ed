package tile

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
	xdraw "golang.org/x/image/draw"
)

// Output format names
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatPNG8 = "png8"
)

// Encoder turns a tile image into bytes
type Encoder interface {
	Encode(w io.Writer, img image.Image) error
	// Ext is the file extension without the dot
	Ext() string
	ContentType() string
}

// NewEncoder returns the encoder for a format name
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case FormatPNG, "":
		return PNGEncoder{}, nil
	case FormatJPEG, "jpg":
		if quality < 1 || quality > 100 {
			return nil, &ConfigError{Field: "quality", Reason: fmt.Sprintf("%d not in 1..100", quality)}
		}
		return JPEGEncoder{Quality: quality}, nil
	case FormatPNG8:
		return PalettedEncoder{Colors: 256}, nil
	default:
		return nil, &ConfigError{Field: "format", Reason: fmt.Sprintf("unknown format %q", format)}
	}
}

// PNGEncoder writes lossless truecolor PNG tiles
type PNGEncoder struct{}

var pngEncoder = png.Encoder{CompressionLevel: png.BestCompression}

func (PNGEncoder) Encode(w io.Writer, img image.Image) error {
	return pngEncoder.Encode(w, img)
}

func (PNGEncoder) Ext() string         { return "png" }
func (PNGEncoder) ContentType() string { return "image/png" }

// JPEGEncoder writes lossy JPEG tiles
type JPEGEncoder struct {
	Quality int
}

func (e JPEGEncoder) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: e.Quality})
}

func (JPEGEncoder) Ext() string         { return "jpg" }
func (JPEGEncoder) ContentType() string { return "image/jpeg" }

// PalettedEncoder reduces a tile to a median-cut palette and writes it as
// an 8-bit PNG
type PalettedEncoder struct {
	Colors int
}

func (e PalettedEncoder) Encode(w io.Writer, img image.Image) error {
	b := img.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, e.Colors), img))
	xdraw.Draw(pm, b, img, b.Min, xdraw.Src)
	return pngEncoder.Encode(w, pm)
}

func (PalettedEncoder) Ext() string         { return "png" }
func (PalettedEncoder) ContentType() string { return "image/png" }
