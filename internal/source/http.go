package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	pb "gopkg.in/cheggaaa/pb.v1"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// HTTP downloads the map image, either from the map's own URL or from
// URLTemplate, into Cache and decodes the downloaded file
type HTTP struct {
	client      *http.Client
	URLTemplate string
	UserAgent   string
	Cache       *Cache
	// Progress receives a byte progress bar; nil disables it
	Progress io.Writer
	Log      logrus.FieldLogger
}

// NewHTTP creates an HTTP provider storing downloads in cache
func NewHTTP(cache *Cache, urlTemplate string) *HTTP {
	return &HTTP{
		client:      &http.Client{Timeout: 2 * time.Hour},
		URLTemplate: urlTemplate,
		UserAgent:   "pyramid",
		Cache:       cache,
	}
}

func (h *HTTP) url(cfg tile.MapConfig) string {
	if cfg.ImageURL != "" {
		return cfg.ImageURL
	}
	if h.URLTemplate != "" {
		return tile.BuildURL(h.URLTemplate, cfg)
	}
	return ""
}

// Open downloads (or reuses a cached download) and decodes the image for cfg
func (h *HTTP) Open(ctx context.Context, cfg tile.MapConfig) (*tile.Raster, error) {
	url := h.url(cfg)
	if url == "" {
		return nil, &tile.SourceError{Source: cfg.Namespace, Err: ErrNoSource}
	}

	name, err := h.Cache.Fetch(url, func(w io.Writer) error {
		return h.download(ctx, url, w)
	})
	if err != nil {
		return nil, &tile.SourceError{Source: url, Err: err}
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, &tile.SourceError{Source: name, Err: err}
	}
	defer file.Close()
	return decodeFile(file, url, h.Log)
}

// download streams url into w
func (h *HTTP) download(ctx context.Context, url string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", h.UserAgent)

	if h.Log != nil {
		h.Log.Infof("downloading %s", url)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	if h.Log != nil && resp.ContentLength > 0 {
		h.Log.Infof("file size: %.2f GB", float64(resp.ContentLength)/(1<<30))
	}

	var body io.Reader = resp.Body
	if h.Progress != nil && resp.ContentLength > 0 {
		bar := pb.New64(resp.ContentLength).SetUnits(pb.U_BYTES)
		bar.Output = h.Progress
		bar.SetRefreshRate(time.Second)
		bar.Start()
		defer bar.Finish()
		body = bar.NewProxyReader(resp.Body)
	}

	_, err = io.Copy(w, body)
	return err
}
