// Package registry loads the list of maps tiles can be generated for.
package registry

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strconv"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/kiesman99/pyramid/pkg/tile"
)

// record is one entry of the registry file
type record struct {
	Namespace string  `json:"namespace"`
	Name      string  `json:"name" validate:"required"`
	Dir       string  `json:"dir"`
	Size      []int   `json:"size" validate:"len=2,dive,gt=0"`
	MaxZoom   *int    `json:"max_zoom" validate:"required,gte=0,lte=24"`
	CropSize  []int   `json:"crop_size" validate:"omitempty,len=2,dive,gt=0"`
	Variant   *string `json:"variant" default:"_sat"`
	Resources struct {
		MapImage string `json:"map_image" validate:"omitempty,url"`
	} `json:"resources"`
}

func (r *record) config() tile.MapConfig {
	cfg := tile.MapConfig{
		Namespace: r.Namespace,
		Name:      r.Name,
		Size:      image.Pt(r.Size[0], r.Size[1]),
		MaxZoom:   *r.MaxZoom,
		Variant:   *r.Variant,
		Dir:       r.Dir,
		ImageURL:  r.Resources.MapImage,
	}
	if len(r.CropSize) == 2 {
		override := image.Pt(r.CropSize[0], r.CropSize[1])
		cfg.Override = &override
	}
	return cfg
}

// Registry is the ordered set of known maps keyed by namespace
type Registry struct {
	maps *orderedmap.OrderedMap[string, tile.MapConfig]
}

// Load reads a registry file
func Load(name string) (*Registry, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return reg, nil
}

// Parse decodes a JSON array of map records. A record without a namespace
// gets one derived from its name.
func Parse(data []byte) (*Registry, error) {
	var records []*record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	reg := &Registry{maps: orderedmap.New[string, tile.MapConfig]()}
	for i, r := range records {
		if err := defaults.Set(r); err != nil {
			return nil, err
		}
		if r.Namespace == "" {
			r.Namespace = strcase.ToSnake(r.Name)
		}
		if err := validate.Struct(r); err != nil {
			return nil, &tile.ConfigError{Field: fmt.Sprintf("maps[%d]", i), Reason: err.Error()}
		}
		if _, dup := reg.maps.Get(r.Namespace); dup {
			return nil, &tile.ConfigError{Field: fmt.Sprintf("maps[%d]", i), Reason: fmt.Sprintf("duplicate namespace %q", r.Namespace)}
		}
		reg.maps.Set(r.Namespace, r.config())
	}
	return reg, nil
}

// Len returns the number of maps
func (r *Registry) Len() int {
	return r.maps.Len()
}

// Maps returns all maps in registry order
func (r *Registry) Maps() []tile.MapConfig {
	out := make([]tile.MapConfig, 0, r.maps.Len())
	for pair := r.maps.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Get looks a map up by namespace
func (r *Registry) Get(namespace string) (tile.MapConfig, bool) {
	return r.maps.Get(namespace)
}

// Select resolves a user choice: "all", a namespace or a 1-based index
func (r *Registry) Select(choice string) ([]tile.MapConfig, error) {
	if choice == "all" {
		return r.Maps(), nil
	}
	if cfg, ok := r.Get(choice); ok {
		return []tile.MapConfig{cfg}, nil
	}
	if idx, err := strconv.Atoi(choice); err == nil {
		maps := r.Maps()
		if idx < 1 || idx > len(maps) {
			return nil, fmt.Errorf("map index %d out of range 1..%d", idx, len(maps))
		}
		return []tile.MapConfig{maps[idx-1]}, nil
	}
	return nil, fmt.Errorf("map with namespace %q not found", choice)
}
