package tile

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, checker(40)))

	cfg, format, err := DecodeConfig(bytes.NewReader(buf.Bytes()), "sat.png")
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 40, cfg.Width)

	r, err := Decode(bytes.NewReader(buf.Bytes()), "sat.png")
	require.NoError(t, err)
	assert.Equal(t, 40, r.Width)
	assert.Equal(t, 40, r.Height)
	assert.Equal(t, 4, r.Depth)
	assert.Equal(t, []byte{0xd0, 0xc0, 0x90, 0xff}, r.Buf[:4])
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not an image"), "broken.png")
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "broken.png", derr.Source)

	_, _, err = DecodeConfig(strings.NewReader(""), "empty.png")
	assert.ErrorAs(t, err, &derr)
}

func TestToRasterConvertsPaletted(t *testing.T) {
	pal := color.Palette{color.RGBA{0, 0, 0, 0xff}, color.RGBA{0xff, 0, 0, 0xff}}
	img := image.NewPaletted(image.Rect(10, 10, 14, 12), pal)
	img.SetColorIndex(13, 11, 1)

	r := ToRaster(img)
	assert.Equal(t, image.Rect(0, 0, 4, 2), r.Bounds())
	assert.Equal(t, []byte{0xff, 0, 0, 0xff}, r.Buf[len(r.Buf)-4:])
	assert.Equal(t, []byte{0, 0, 0, 0xff}, r.Buf[:4])
}

func TestBuildURL(t *testing.T) {
	cfg := MapConfig{Namespace: "arland", Dir: "Arland"}
	assert.Equal(t, "https://example.org/maps/Arland/arland.png",
		BuildURL("https://example.org/maps/{dir}/{namespace}.png", cfg))
	assert.Equal(t, "https://example.org/static.png", BuildURL("https://example.org/static.png", cfg))
}
