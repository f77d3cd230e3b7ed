// Package sink persists generated tiles.
package sink

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// Dir writes tiles as files under Root following tile.Path.
// Directories are created on first use.
type Dir struct {
	Root    string
	Encoder tile.Encoder
}

// NewDir returns a directory sink rooted at root
func NewDir(root string, enc tile.Encoder) *Dir {
	if root == "" {
		root = tile.DefaultRoot
	}
	return &Dir{Root: root, Encoder: enc}
}

// Put encodes and writes one tile
func (d *Dir) Put(t *tile.Tile) error {
	var buf bytes.Buffer
	if err := d.Encoder.Encode(&buf, t.Image); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	name := tile.Path(d.Root, t.Namespace, t.Variant, t.T, d.Encoder.Ext())
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, buf.Bytes(), 0o644)
}

// Close is a no-op; every Put is already on disk
func (d *Dir) Close() error {
	return nil
}

// SetDir returns the directory holding one tile set
func SetDir(root, namespace, variant string) string {
	if root == "" {
		root = tile.DefaultRoot
	}
	return filepath.Join(root, tile.SetName(namespace, variant))
}

// Exists reports whether a tile set directory exists and is not empty
func Exists(root, namespace, variant string) (bool, error) {
	entries, err := os.ReadDir(SetDir(root, namespace, variant))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// Purge removes a tile set directory
func Purge(root, namespace, variant string) error {
	return os.RemoveAll(SetDir(root, namespace, variant))
}
