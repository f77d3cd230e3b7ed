// Package server serves generated tile sets over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/karlseguin/ccache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/kiesman99/pyramid/internal/registry"
	"github.com/kiesman99/pyramid/internal/sink"
	"github.com/kiesman99/pyramid/pkg/tile"
)

// contentTypes lists the tile extensions that are served
var contentTypes = map[string]string{
	"png": "image/png",
	"jpg": "image/jpeg",
}

// Options configures a Server
type Options struct {
	Root      string
	Version   string
	CacheSize int64
	CacheTTL  time.Duration
	Timeout   time.Duration
}

// Server serves tiles from a directory tree written by sink.Dir
type Server struct {
	startTime time.Time
	version   string
	root      string
	ttl       time.Duration
	timeout   time.Duration
	registry  *registry.Registry
	cache     *ccache.Cache[[]byte]
	inflight  singleflight.Group
	log       logrus.FieldLogger
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    int       `json:"uptime"`
	Version   string    `json:"version"`
}

// MapResponse describes one registry map and its tile set
type MapResponse struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Size      [2]int `json:"size"`
	MaxZoom   int    `json:"max_zoom"`
	TileSet   string `json:"tile_set"`
	Generated bool   `json:"generated"`
	URL       string `json:"url"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error     string  `json:"error"`
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

// NewServer creates a new server instance. reg may be nil.
func NewServer(opts Options, reg *registry.Registry, log logrus.FieldLogger) *Server {
	if opts.Root == "" {
		opts.Root = tile.DefaultRoot
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Server{
		startTime: time.Now(),
		version:   opts.Version,
		root:      opts.Root,
		ttl:       opts.CacheTTL,
		timeout:   opts.Timeout,
		registry:  reg,
		cache:     ccache.New(ccache.Configure[[]byte]().MaxSize(opts.CacheSize)),
		log:       log,
	}
}

// Routes builds the HTTP handler
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.log, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	// CORS for map viewers on other origins
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.GetHealth)
		r.Get("/maps", s.ListMaps)
	})

	// Legacy health endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/v1/health", http.StatusMovedPermanently)
	})

	r.Get("/tiles/{set}/{z}/{x}/{file}", s.GetTile)

	return r
}

// Close stops the cache's background worker
func (s *Server) Close() {
	s.cache.Stop()
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int(time.Since(s.startTime).Seconds()),
		Version:   s.version,
	}
	s.writeJSON(w, http.StatusOK, response)
}

// ListMaps lists the registry and whether each tile set has been generated
func (s *Server) ListMaps(w http.ResponseWriter, r *http.Request) {
	response := []MapResponse{}
	if s.registry != nil {
		for _, cfg := range s.registry.Maps() {
			generated, err := sink.Exists(s.root, cfg.Namespace, cfg.Variant)
			if err != nil {
				s.log.Warnf("stat tile set %s: %v", cfg.Namespace, err)
			}
			set := tile.SetName(cfg.Namespace, cfg.Variant)
			response = append(response, MapResponse{
				Namespace: cfg.Namespace,
				Name:      cfg.Name,
				Size:      [2]int{cfg.Size.X, cfg.Size.Y},
				MaxZoom:   cfg.MaxZoom,
				TileSet:   set,
				Generated: generated,
				URL:       "/tiles/" + set + "/{z}/{x}/{y}.{ext}",
			})
		}
	}
	s.writeJSON(w, http.StatusOK, response)
}

// GetTile serves one tile file
func (s *Server) GetTile(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	set := chi.URLParam(r, "set")
	if set == "" || set == "." || set == ".." || strings.ContainsAny(set, `/\`) {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_TILE_SET", "invalid tile set name", &requestID)
		return
	}

	yStr, ext, ok := strings.Cut(chi.URLParam(r, "file"), ".")
	contentType, known := contentTypes[ext]
	if !ok || !known {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_FORMAT", "unsupported tile format", &requestID)
		return
	}

	z, errZ := strconv.ParseUint(chi.URLParam(r, "z"), 10, 32)
	x, errX := strconv.ParseUint(chi.URLParam(r, "x"), 10, 32)
	y, errY := strconv.ParseUint(yStr, 10, 32)
	if errZ != nil || errX != nil || errY != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_COORDINATES", "z, x and y must be non-negative integers", &requestID)
		return
	}

	name := tile.Path(s.root, set, "", tile.Address(int(z), int(x), int(y)), ext)
	data, err := s.load(name)
	if errors.Is(err, os.ErrNotExist) {
		s.writeErrorResponse(w, http.StatusNotFound, "TILE_NOT_FOUND", "tile does not exist", &requestID)
		return
	}
	if err != nil {
		s.log.Errorf("read %s: %v", name, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", &requestID)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Debugf("write response: %v", err)
	}
}

// load returns a tile file from the cache or disk. Concurrent misses for
// the same file share one read.
func (s *Server) load(name string) ([]byte, error) {
	if item := s.cache.Get(name); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	v, err, _ := s.inflight.Do(name, func() (interface{}, error) {
		data, err := os.ReadFile(filepath.Clean(name))
		if err != nil {
			return nil, err
		}
		s.cache.Set(name, data, s.ttl)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnf("encode response: %v", err)
	}
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string) {
	s.writeJSON(w, statusCode, ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestID: requestID,
	})
}
