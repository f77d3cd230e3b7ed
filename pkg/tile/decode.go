package tile

import (
	"bufio"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Decode detects the image format and decodes r into an RGBA raster.
// name identifies the source in errors.
func Decode(r io.Reader, name string) (*Raster, error) {
	img, format, err := image.Decode(bufio.NewReaderSize(r, 1<<20))
	if err != nil {
		return nil, &DecodeError{Source: name, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{Source: name, Err: fmt.Errorf("%s image has no pixels", format)}
	}
	return ToRaster(img), nil
}

// DecodeConfig returns the dimensions and format of an image without
// decoding its pixels
func DecodeConfig(r io.Reader, name string) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, "", &DecodeError{Source: name, Err: err}
	}
	return cfg, format, nil
}

// ToRaster converts any image to a zero-origin RGBA raster
func ToRaster(img image.Image) *Raster {
	if rgba, ok := img.(*image.RGBA); ok {
		return RasterFromRGBA(rgba)
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)

	return &Raster{
		Buf:    dst.Pix,
		Width:  b.Dx(),
		Height: b.Dy(),
		Depth:  4,
	}
}

// BuildURL replaces URL template tokens
func BuildURL(template string, cfg MapConfig) string {
	url := template
	url = strings.ReplaceAll(url, "{namespace}", cfg.Namespace)
	url = strings.ReplaceAll(url, "{dir}", cfg.Dir)
	return url
}
