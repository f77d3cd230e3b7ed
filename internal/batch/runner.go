// Package batch runs the pyramid generator over several maps.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kiesman99/pyramid/internal/pyramid"
	"github.com/kiesman99/pyramid/internal/sink"
	"github.com/kiesman99/pyramid/internal/source"
	"github.com/kiesman99/pyramid/pkg/tile"
)

// Sink kinds
const (
	SinkDir     = "dir"
	SinkMBTiles = "mbtiles"
)

// Status is the outcome of one map
type Status string

const (
	StatusDone    Status = "done"
	StatusPartial Status = "partial"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome records what happened to one map
type Outcome struct {
	Map    tile.MapConfig
	Status Status
	Result *pyramid.Result
	Err    error
}

// Runner generates maps one after another. A failure on one map never
// stops the maps after it; cancelling the context does, between maps.
type Runner struct {
	Provider  source.Provider
	Output    string
	Sink      string
	Encoder   tile.Encoder
	Options   pyramid.Options
	Overwrite bool
	Log       logrus.FieldLogger
}

// Run processes maps in order and returns one outcome per map started.
// The error joins every per-map failure.
func (r *Runner) Run(ctx context.Context, maps []tile.MapConfig) ([]Outcome, error) {
	var (
		outcomes []Outcome
		errs     []error
	)
	for _, cfg := range maps {
		if err := ctx.Err(); err != nil {
			r.Log.Warnf("stopping before %s: %v", cfg.Namespace, err)
			errs = append(errs, err)
			break
		}

		r.Log.Infof("processing %s (%s), max zoom %d, size %dx%d", cfg.Name, cfg.Namespace, cfg.MaxZoom, cfg.Size.X, cfg.Size.Y)
		out := r.one(ctx, cfg)
		outcomes = append(outcomes, out)

		switch out.Status {
		case StatusFailed, StatusPartial:
			r.Log.Errorf("%s: %v", cfg.Namespace, out.Err)
			errs = append(errs, fmt.Errorf("%s: %w", cfg.Namespace, out.Err))
		case StatusSkipped:
			r.Log.Infof("skipping %s, tiles already exist", cfg.Namespace)
		default:
			r.Log.Infof("%s complete", cfg.Namespace)
		}
	}
	return outcomes, errors.Join(errs...)
}

func (r *Runner) one(ctx context.Context, cfg tile.MapConfig) Outcome {
	out := Outcome{Map: cfg}
	fail := func(err error) Outcome {
		out.Status, out.Err = StatusFailed, err
		return out
	}

	if err := cfg.Validate(); err != nil {
		return fail(err)
	}

	exists, err := r.exists(cfg)
	if err != nil {
		return fail(err)
	}
	if exists {
		if !r.Overwrite {
			out.Status = StatusSkipped
			return out
		}
		r.Log.Infof("deleting existing tiles for %s", cfg.Namespace)
		if err := r.purge(cfg); err != nil {
			return fail(err)
		}
	}

	raster, err := r.Provider.Open(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	s, err := r.openSink(cfg)
	if err != nil {
		return fail(err)
	}

	gen, err := pyramid.New(s, r.Options, r.Log)
	if err != nil {
		s.Close()
		return fail(err)
	}

	res, err := gen.Generate(raster, cfg)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = cerr
	}
	out.Result = res

	var partial *tile.PartialError
	switch {
	case errors.As(err, &partial):
		out.Status, out.Err = StatusPartial, err
	case err != nil:
		return fail(err)
	default:
		out.Status = StatusDone
	}
	return out
}

func (r *Runner) openSink(cfg tile.MapConfig) (tile.Sink, error) {
	switch r.Sink {
	case SinkDir, "":
		return sink.NewDir(r.Output, r.Encoder), nil
	case SinkMBTiles:
		return sink.OpenMBTiles(r.Output, cfg, r.Encoder)
	}
	return nil, &tile.ConfigError{Field: "sink", Reason: fmt.Sprintf("unknown sink %q", r.Sink)}
}

func (r *Runner) exists(cfg tile.MapConfig) (bool, error) {
	if r.Sink == SinkMBTiles {
		_, err := os.Stat(sink.MBTilesPath(r.Output, cfg.Namespace, cfg.Variant))
		if os.IsNotExist(err) {
			return false, nil
		}
		return err == nil, err
	}
	return sink.Exists(r.Output, cfg.Namespace, cfg.Variant)
}

func (r *Runner) purge(cfg tile.MapConfig) error {
	if r.Sink == SinkMBTiles {
		return os.Remove(sink.MBTilesPath(r.Output, cfg.Namespace, cfg.Variant))
	}
	return sink.Purge(r.Output, cfg.Namespace, cfg.Variant)
}
