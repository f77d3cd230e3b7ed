package sink

import (
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiesman99/pyramid/pkg/tile"
)

func testTile(z, x, y int) *tile.Tile {
	return &tile.Tile{
		Namespace: "arland",
		Variant:   "_sat",
		T:         tile.Address(z, x, y),
		Image:     image.NewRGBA(image.Rect(0, 0, 256, 256)),
	}
}

type failingEncoder struct{ tile.PNGEncoder }

func (failingEncoder) Encode(io.Writer, image.Image) error {
	return errors.New("encoder broke")
}

func TestDirPut(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, tile.PNGEncoder{})

	exists, err := Exists(root, "arland", "_sat")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, d.Put(testTile(3, 5, 7)))
	require.NoError(t, d.Close())

	f, err := os.Open(filepath.Join(root, "arland_sat", "3", "5", "7.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Width)
	assert.Equal(t, 256, cfg.Height)

	exists, err = Exists(root, "arland", "_sat")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDirPutOverwrites(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, tile.PNGEncoder{})
	require.NoError(t, d.Put(testTile(0, 0, 0)))
	require.NoError(t, d.Put(testTile(0, 0, 0)))

	entries, err := os.ReadDir(filepath.Join(root, "arland_sat", "0", "0"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirPutEncodeFailure(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, failingEncoder{})

	err := d.Put(testTile(1, 0, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder broke")
	assert.NoFileExists(t, filepath.Join(root, "arland_sat", "1", "0", "0.png"))
}

func TestPurge(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, tile.PNGEncoder{})
	require.NoError(t, d.Put(testTile(0, 0, 0)))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "everon_sat"), 0o755))

	require.NoError(t, Purge(root, "arland", "_sat"))
	assert.NoDirExists(t, SetDir(root, "arland", "_sat"))
	assert.DirExists(t, SetDir(root, "everon", "_sat"))

	// an empty directory does not count as a generated set
	exists, err := Exists(root, "everon", "_sat")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetDir(t *testing.T) {
	assert.Equal(t, filepath.Join("tiles", "arland_sat"), SetDir("", "arland", "_sat"))
	assert.Equal(t, filepath.Join("out", "arland"), SetDir("out", "arland", ""))
}
