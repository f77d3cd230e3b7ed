// Package source obtains and decodes the raster a pyramid is built from.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// DefaultImageName is the file a map directory is expected to hold
const DefaultImageName = "sat_full.png"

// ErrNoSource is returned when a provider has nothing to offer for a map
var ErrNoSource = errors.New("no source image")

// Provider supplies the decoded raster for a map
type Provider interface {
	Open(ctx context.Context, cfg tile.MapConfig) (*tile.Raster, error)
}

// File reads a local image. With Path set it is used for every map,
// otherwise <Base>/<map dir>/sat_full.png.
type File struct {
	Path string
	Base string
	Log  logrus.FieldLogger
}

func (f *File) path(cfg tile.MapConfig) string {
	if f.Path != "" {
		return f.Path
	}
	dir := cfg.Dir
	if dir == "" {
		dir = cfg.Namespace
	}
	return filepath.Join(f.Base, dir, DefaultImageName)
}

// Open decodes the local image for cfg
func (f *File) Open(ctx context.Context, cfg tile.MapConfig) (*tile.Raster, error) {
	name := f.path(cfg)
	file, err := os.Open(name)
	if os.IsNotExist(err) {
		return nil, &tile.SourceError{Source: name, Err: ErrNoSource}
	}
	if err != nil {
		return nil, &tile.SourceError{Source: name, Err: err}
	}
	defer file.Close()

	if f.Log != nil {
		f.Log.Infof("loading image from %s", name)
	}
	return decodeFile(file, name, f.Log)
}

func decodeFile(file *os.File, name string, log logrus.FieldLogger) (*tile.Raster, error) {
	cfg, format, err := tile.DecodeConfig(file, name)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Infof("%s image %dx%d (%.2f GB decoded)", format, cfg.Width, cfg.Height,
			float64(cfg.Width)*float64(cfg.Height)*4/(1<<30))
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, &tile.SourceError{Source: name, Err: err}
	}
	return tile.Decode(file, name)
}

// Chain tries providers in order and returns the first raster. A provider
// reporting ErrNoSource passes to the next one; any other failure stops.
type Chain []Provider

// Open runs the chain for cfg
func (c Chain) Open(ctx context.Context, cfg tile.MapConfig) (*tile.Raster, error) {
	for _, p := range c {
		r, err := p.Open(ctx, cfg)
		if errors.Is(err, ErrNoSource) {
			continue
		}
		return r, err
	}
	return nil, &tile.SourceError{Source: cfg.Namespace, Err: fmt.Errorf("%w found for map", ErrNoSource)}
}
