package source

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrPreviouslyFailed is returned for a key whose fetch already failed
var ErrPreviouslyFailed = errors.New("fetch failed earlier in this run")

// Cache keeps downloaded artifacts on disk keyed by URL and remembers keys
// whose fetch failed so they are not attempted again.
type Cache struct {
	dir    string
	mu     sync.Mutex
	failed map[string]error
}

// NewCache returns a cache storing files in dir
func NewCache(dir string) *Cache {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "pyramid-cache")
	}
	return &Cache{dir: dir, failed: make(map[string]error)}
}

// Path returns the file a key is stored in
func (c *Cache) Path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:12]))
}

// Failed reports whether key failed earlier
func (c *Cache) Failed(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.failed[key]
	return ok
}

// Fetch returns the cached file for key, calling fill to produce it when
// missing. A failed fill is recorded and returned again on later calls
// without calling fill.
func (c *Cache) Fetch(key string, fill func(w io.Writer) error) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.failed[key]; ok {
		return "", fmt.Errorf("%w: %v", ErrPreviouslyFailed, err)
	}

	name := c.Path(key)
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	if err := c.fill(name, fill); err != nil {
		c.failed[key] = err
		return "", err
	}
	return name, nil
}

// fill writes to a temporary file first so an interrupted download never
// looks like a cached one
func (c *Cache) fill(name string, fill func(w io.Writer) error) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "partial-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), name)
}
