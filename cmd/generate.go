package cmd

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/pyramid/internal/batch"
	"github.com/kiesman99/pyramid/internal/pyramid"
	"github.com/kiesman99/pyramid/internal/source"
	"github.com/kiesman99/pyramid/pkg/tile"
)

var generateCmd = &cobra.Command{
	Use:   "generate <namespace|index|all>",
	Short: "Generate the tile pyramid for one or more maps",
	Long: `Generate the tile pyramid for maps from the registry.

The source image is taken from --image, else from
<source-dir>/<map dir>/sat_full.png, else downloaded from the map's
map_image resource or --url-template.

Existing tile sets are skipped unless --overwrite is given, in which case
they are deleted and regenerated.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringP("image", "i", "", "local image file (overrides the registry location)")
	f.String("crop-size", "", "override the declared size used for cropping, as WIDTHxHEIGHT")
	f.Bool("overwrite", false, "delete and regenerate existing tile sets")
	f.StringP("format", "f", tile.FormatPNG, "tile format (png|jpeg|png8)")
	f.Int("quality", 90, "JPEG quality (1-100)")
	f.IntP("tile-size", "t", tile.DefaultSize, "tile size in pixels")
	f.String("canvas", string(pyramid.CanvasIndependent), "canvas padding (independent|square)")
	f.String("filter", string(pyramid.FilterLanczos), "resampling filter (lanczos|catmullrom|bilinear|box)")
	f.IntP("workers", "w", 4, "concurrent tile writers and resampling bands")
	f.String("sink", batch.SinkDir, "tile sink (dir|mbtiles)")
	f.String("source-dir", ".", "base directory holding <map dir>/sat_full.png")
	f.String("url-template", "", "download URL template with {namespace} and {dir} placeholders")
	f.String("cache-dir", "", "directory for downloaded images")
	f.Bool("no-progress", false, "disable progress bars")

	viper.BindPFlag("image", f.Lookup("image"))
	viper.BindPFlag("crop-size", f.Lookup("crop-size"))
	viper.BindPFlag("overwrite", f.Lookup("overwrite"))
	viper.BindPFlag("format", f.Lookup("format"))
	viper.BindPFlag("quality", f.Lookup("quality"))
	viper.BindPFlag("tile-size", f.Lookup("tile-size"))
	viper.BindPFlag("canvas", f.Lookup("canvas"))
	viper.BindPFlag("filter", f.Lookup("filter"))
	viper.BindPFlag("workers", f.Lookup("workers"))
	viper.BindPFlag("sink", f.Lookup("sink"))
	viper.BindPFlag("source.dir", f.Lookup("source-dir"))
	viper.BindPFlag("source.url-template", f.Lookup("url-template"))
	viper.BindPFlag("source.cache-dir", f.Lookup("cache-dir"))
	viper.BindPFlag("no-progress", f.Lookup("no-progress"))
}

func runGenerate(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}
	maps, err := reg.Select(args[0])
	if err != nil {
		return err
	}

	if s := viper.GetString("crop-size"); s != "" {
		override, err := parseSize(s)
		if err != nil {
			return err
		}
		for i := range maps {
			maps[i].Override = &override
		}
	}

	enc, err := tile.NewEncoder(viper.GetString("format"), viper.GetInt("quality"))
	if err != nil {
		return err
	}

	var progress io.Writer = cmd.ErrOrStderr()
	if viper.GetBool("no-progress") {
		progress = nil
	}

	runner := &batch.Runner{
		Provider:  newProvider(progress),
		Output:    viper.GetString("output"),
		Sink:      viper.GetString("sink"),
		Encoder:   enc,
		Overwrite: viper.GetBool("overwrite"),
		Log:       log,
		Options: pyramid.Options{
			TileSize: viper.GetInt("tile-size"),
			Canvas:   pyramid.CanvasMode(viper.GetString("canvas")),
			Filter:   pyramid.Filter(viper.GetString("filter")),
			Workers:  viper.GetInt("workers"),
			Progress: progress,
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, err := runner.Run(ctx, maps)
	for _, o := range outcomes {
		line := fmt.Sprintf("%-15s %-8s", o.Map.Namespace, o.Status)
		if o.Result != nil {
			line += fmt.Sprintf(" %d tiles, %d empty, %d failed", o.Result.Written, o.Result.Empty, len(o.Result.Failed))
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return err
}

// newProvider builds the source chain. An explicit image is used alone so a
// missing file is reported instead of falling back to a download.
func newProvider(progress io.Writer) source.Provider {
	if name := viper.GetString("image"); name != "" {
		return &source.File{Path: name, Log: log}
	}

	dl := source.NewHTTP(source.NewCache(viper.GetString("source.cache-dir")), viper.GetString("source.url-template"))
	dl.Progress = progress
	dl.Log = log

	return source.Chain{
		&source.File{Base: viper.GetString("source.dir"), Log: log},
		dl,
	}
}

// parseSize parses WIDTHxHEIGHT
func parseSize(s string) (image.Point, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return image.Point{}, fmt.Errorf("size %q must be WIDTHxHEIGHT", s)
	}
	w, errW := strconv.Atoi(strings.TrimSpace(ws))
	h, errH := strconv.Atoi(strings.TrimSpace(hs))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return image.Point{}, fmt.Errorf("size %q must be two positive integers", s)
	}
	return image.Pt(w, h), nil
}
