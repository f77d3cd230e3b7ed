/*
Package pyramid turns one large raster into a tile pyramid.

The raster is optionally cropped to the declared map aspect ratio, padded to
power-of-two dimensions, resampled once per zoom level from the full canvas
and cut into fixed-size tiles handed to a tile.Sink.
*/
package pyramid

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/teris-io/shortid"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// Options configures a Generator
type Options struct {
	TileSize int        `default:"256" validate:"gt=0"`
	Canvas   CanvasMode `default:"independent" validate:"oneof=independent square"`
	Filter   Filter     `default:"lanczos" validate:"oneof=lanczos catmullrom bilinear box"`
	Workers  int        `default:"4" validate:"gte=1"`
	// Background defaults to tile.Background when zero
	Background color.RGBA
	// Progress receives per-level progress bars; nil disables them
	Progress io.Writer
}

// LevelStats records what happened to one level
type LevelStats struct {
	Level
	Written int
	Empty   []maptile.Tile
	Failed  int
}

// Result summarizes one map run
type Result struct {
	Namespace string
	Variant   string
	RunID     string
	Source    image.Rectangle
	Crop      image.Rectangle
	Canvas    image.Point
	Levels    []LevelStats
	Written   int
	Empty     int
	Failed    []tile.WriteError
	Duration  time.Duration
}

// Total returns the number of tiles across all levels
func (r *Result) Total() int {
	n := 0
	for _, l := range r.Levels {
		n += l.Tiles()
	}
	return n
}

// Generator builds tile pyramids into a sink
type Generator struct {
	sink   tile.Sink
	opts   Options
	kernel *xdraw.Kernel
	log    logrus.FieldLogger
}

// New validates opts and returns a generator writing to sink
func New(sink tile.Sink, opts Options, log logrus.FieldLogger) (*Generator, error) {
	if err := defaults.Set(&opts); err != nil {
		return nil, err
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&opts); err != nil {
		return nil, &tile.ConfigError{Field: "options", Reason: err.Error()}
	}
	if opts.Background == (color.RGBA{}) {
		opts.Background = tile.Background
	}
	kernel, err := opts.Filter.Kernel()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Generator{
		sink:   sink,
		opts:   opts,
		kernel: kernel,
		log:    log,
	}, nil
}

// Generate builds every level of cfg's pyramid from src and writes all tiles.
// Tile write failures do not stop the run; if any occurred the result is
// returned together with a *tile.PartialError.
func (g *Generator) Generate(src *tile.Raster, cfg tile.MapConfig) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil || src.Width <= 0 || src.Height <= 0 {
		return nil, &tile.DecodeError{Source: cfg.Namespace, Err: fmt.Errorf("raster has no pixels")}
	}

	start := time.Now()
	runID, err := shortid.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	log := g.log.WithFields(logrus.Fields{"map": cfg.Namespace, "run": runID})

	res := &Result{
		Namespace: cfg.Namespace,
		Variant:   cfg.Variant,
		RunID:     runID,
		Source:    src.Bounds(),
		Crop:      src.Bounds(),
	}

	if g.opts.Canvas == CanvasIndependent {
		res.Crop = ResolveGeometry(src.Width, src.Height, cfg.Size, cfg.Override)
		if res.Crop != res.Source {
			log.Infof("square padding detected: %dx%d, expected %dx%d, cropping to %v",
				src.Width, src.Height, cfg.CropSize().X, cfg.CropSize().Y, res.Crop)
		}
	}
	log.Infof("image size after crop: %dx%d", res.Crop.Dx(), res.Crop.Dy())

	canvas := PadCanvas(src, res.Crop, g.opts.Canvas, g.opts.Background)
	res.Canvas = image.Pt(canvas.Width, canvas.Height)
	if canvas != src {
		log.Infof("padded image from %dx%d to %dx%d", res.Crop.Dx(), res.Crop.Dy(), canvas.Width, canvas.Height)
	}

	for _, level := range Levels(canvas.Width, canvas.Height, cfg.MaxZoom, g.opts.TileSize) {
		stats, failed := g.level(canvas, level, cfg, log.WithField("zoom", level.Zoom))
		res.Levels = append(res.Levels, stats)
		res.Written += stats.Written
		res.Empty += len(stats.Empty)
		res.Failed = append(res.Failed, failed...)
	}
	res.Duration = time.Since(start)

	log.Infof("%d tiles written, %d empty, %d failed in %s", res.Written, res.Empty, len(res.Failed), res.Duration.Round(time.Millisecond))

	if len(res.Failed) > 0 {
		return res, &tile.PartialError{
			Namespace: cfg.Namespace,
			Failed:    res.Failed,
			Written:   res.Written,
			Total:     res.Total(),
		}
	}
	return res, nil
}

// level resamples, slices and writes one zoom level. The level raster is
// dropped when it returns.
func (g *Generator) level(canvas *tile.Raster, level Level, cfg tile.MapConfig, log logrus.FieldLogger) (LevelStats, []tile.WriteError) {
	log.Infof("generating zoom level %d: %dx%d, %dx%d = %d tiles",
		level.Zoom, level.Width, level.Height, level.Cols, level.Rows, level.Tiles())

	raster := canvas
	if level.Zoom < cfg.MaxZoom {
		raster = Resample(canvas, level.Width, level.Height, g.kernel, g.opts.Workers)
	}

	var bar *pb.ProgressBar
	if g.opts.Progress != nil {
		bar = pb.New(level.Tiles()).Prefix(fmt.Sprintf("Zoom %d : ", level.Zoom))
		bar.Output = g.opts.Progress
		bar.SetRefreshRate(time.Second)
		bar.Start()
	}

	stats := LevelStats{Level: level}
	var (
		mu     sync.Mutex
		failed []tile.WriteError
		eg     errgroup.Group
	)
	eg.SetLimit(g.opts.Workers)

	for col := 0; col < level.Cols; col++ {
		for row := 0; row < level.Rows; row++ {
			col, row := col, row
			eg.Go(func() error {
				img, empty := SliceTile(raster, col, row, g.opts.TileSize, g.opts.Background)
				t := &tile.Tile{
					Namespace: cfg.Namespace,
					Variant:   cfg.Variant,
					T:         tile.Address(level.Zoom, col, row),
					Image:     img,
					Empty:     empty,
				}
				if empty {
					log.Warnf("empty tile at zoom %d, x=%d, y=%d", level.Zoom, col, row)
				}
				err := g.sink.Put(t)

				mu.Lock()
				if empty {
					stats.Empty = append(stats.Empty, t.T)
				}
				if err != nil {
					log.Errorf("write tile %d/%d/%d: %v", level.Zoom, col, row, err)
					failed = append(failed, tile.WriteError{T: t.T, Err: err})
					stats.Failed++
				} else {
					stats.Written++
				}
				mu.Unlock()

				if bar != nil {
					bar.Increment()
				}
				return nil
			})
		}
	}
	_ = eg.Wait()

	if bar != nil {
		bar.FinishPrint(fmt.Sprintf("Zoom %d finished", level.Zoom))
	}
	log.Infof("completed: %d/%d tiles", stats.Written, level.Tiles())

	return stats, failed
}
