package sink

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kiesman99/pyramid/pkg/tile"
)

const mbtilesSchema = `
CREATE TABLE IF NOT EXISTS metadata (name TEXT PRIMARY KEY, value TEXT);
CREATE TABLE IF NOT EXISTS tiles (
	zoom_level INTEGER,
	tile_column INTEGER,
	tile_row INTEGER,
	tile_data BLOB
);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
`

// MBTiles writes all tiles of one tile set into a single sqlite database.
// Rows are stored top-down (xyz), recorded in the scheme metadata entry.
type MBTiles struct {
	db      *sql.DB
	encoder tile.Encoder
	mu      sync.Mutex
	minZoom int
	maxZoom int
}

// MBTilesPath returns the database file for a tile set
func MBTilesPath(root, namespace, variant string) string {
	return SetDir(root, namespace, variant) + ".mbtiles"
}

// OpenMBTiles creates or opens the database for cfg under root
func OpenMBTiles(root string, cfg tile.MapConfig, enc tile.Encoder) (*MBTiles, error) {
	name := MBTilesPath(root, cfg.Namespace, cfg.Variant)
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(mbtilesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	m := &MBTiles{db: db, encoder: enc, minZoom: -1, maxZoom: -1}
	meta := map[string]string{
		"name":   tile.SetName(cfg.Namespace, cfg.Variant),
		"format": enc.Ext(),
		"type":   "baselayer",
		"scheme": "xyz",
	}
	for k, v := range meta {
		if err := m.setMetadata(k, v); err != nil {
			db.Close()
			return nil, err
		}
	}
	return m, nil
}

func (m *MBTiles) setMetadata(name, value string) error {
	_, err := m.db.Exec(`INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)`, name, value)
	return err
}

// Put encodes and stores one tile
func (m *MBTiles) Put(t *tile.Tile) error {
	var buf bytes.Buffer
	if err := m.encoder.Encode(&buf, t.Image); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	z := int(t.T.Z)
	if m.minZoom < 0 || z < m.minZoom {
		m.minZoom = z
	}
	if z > m.maxZoom {
		m.maxZoom = z
	}

	_, err := m.db.Exec(`INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
		z, t.T.X, t.T.Y, buf.Bytes())
	return err
}

// Get returns the encoded bytes of a stored tile
func (m *MBTiles) Get(z, x, y int) ([]byte, error) {
	var data []byte
	err := m.db.QueryRow(`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`, z, x, y).Scan(&data)
	return data, err
}

// Close records the zoom range and closes the database
func (m *MBTiles) Close() error {
	if m.maxZoom >= 0 {
		if err := m.setMetadata("minzoom", strconv.Itoa(m.minZoom)); err != nil {
			m.db.Close()
			return err
		}
		if err := m.setMetadata("maxzoom", strconv.Itoa(m.maxZoom)); err != nil {
			m.db.Close()
			return err
		}
	}
	return m.db.Close()
}
