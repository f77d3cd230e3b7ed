package tile

import (
	"path/filepath"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

// DefaultRoot is the directory all tile sets are written under
const DefaultRoot = "tiles"

// SetName is the top-level directory name of a tile set
func SetName(namespace, variant string) string {
	return namespace + variant
}

// Path maps a tile address to its file path:
// {root}/{namespace}{variant}/{zoom}/{col}/{row}.{ext}
func Path(root, namespace, variant string, t maptile.Tile, ext string) string {
	return filepath.Join(
		root,
		SetName(namespace, variant),
		strconv.FormatUint(uint64(t.Z), 10),
		strconv.FormatUint(uint64(t.X), 10),
		strconv.FormatUint(uint64(t.Y), 10)+"."+ext,
	)
}
