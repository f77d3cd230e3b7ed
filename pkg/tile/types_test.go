package tile

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapConfigValidate(t *testing.T) {
	valid := MapConfig{Namespace: "arland", Size: image.Pt(2048, 2048), MaxZoom: 4}
	require.NoError(t, valid.Validate())

	zero := valid
	zero.MaxZoom = 0
	assert.NoError(t, zero.Validate())

	tests := []struct {
		name  string
		field string
		edit  func(*MapConfig)
	}{
		{name: "no namespace", field: "namespace", edit: func(c *MapConfig) { c.Namespace = "" }},
		{name: "zero width", field: "size", edit: func(c *MapConfig) { c.Size.X = 0 }},
		{name: "negative height", field: "size", edit: func(c *MapConfig) { c.Size.Y = -4 }},
		{name: "negative zoom", field: "max_zoom", edit: func(c *MapConfig) { c.MaxZoom = -1 }},
		{name: "bad override", field: "crop_size", edit: func(c *MapConfig) { c.Override = &image.Point{X: 10} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.edit(&cfg)
			err := cfg.Validate()
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}
}

func TestMapConfigCropSize(t *testing.T) {
	cfg := MapConfig{Size: image.Pt(2000, 4000)}
	assert.Equal(t, image.Pt(2000, 4000), cfg.CropSize())

	cfg.Override = &image.Point{X: 4000, Y: 2000}
	assert.Equal(t, image.Pt(4000, 2000), cfg.CropSize())
}

func TestRaster(t *testing.T) {
	r := NewRaster(3, 2, Background)
	assert.Len(t, r.Buf, 3*2*4)
	assert.True(t, r.Opaque())
	assert.Equal(t, image.Rect(0, 0, 3, 2), r.Bounds())

	img := r.RGBA()
	img.SetRGBA(2, 1, color.RGBA{1, 2, 3, 4})
	assert.Equal(t, []byte{1, 2, 3, 4}, r.Buf[20:24], "RGBA shares the buffer")
	assert.False(t, r.Opaque())

	transparent := NewRaster(2, 2, color.RGBA{})
	assert.False(t, transparent.Opaque())
}

func TestRasterFromRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.SetRGBA(3, 3, color.RGBA{9, 9, 9, 9})

	r := RasterFromRGBA(img)
	assert.Equal(t, 4, r.Width)
	assert.Same(t, &img.Pix[0], &r.Buf[0])

	sub := img.SubImage(image.Rect(2, 2, 4, 4)).(*image.RGBA)
	r = RasterFromRGBA(sub)
	assert.Equal(t, 2, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Equal(t, []byte{9, 9, 9, 9}, r.Buf[12:16])
}

func TestErrorsUnwrap(t *testing.T) {
	inner := assert.AnError
	assert.ErrorIs(t, &SourceError{Source: "x", Err: inner}, inner)
	assert.ErrorIs(t, &DecodeError{Source: "x", Err: inner}, inner)
	assert.ErrorIs(t, &WriteError{T: Address(1, 0, 0), Err: inner}, inner)

	perr := &PartialError{Namespace: "arland", Failed: make([]WriteError, 2), Total: 10}
	assert.Contains(t, perr.Error(), "2/10")
}
