package tile

import (
	"fmt"

	"github.com/paulmach/orb/maptile"
)

// ConfigError reports an invalid map configuration or generator option.
// The map is not processed.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// SourceError reports a source image that could not be obtained
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// DecodeError reports a source image that could not be decoded
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// WriteError represents a single tile the sink failed to persist
type WriteError struct {
	T   maptile.Tile
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write tile %d/%d/%d: %v", e.T.Z, e.T.X, e.T.Y, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// PartialError is returned when a map completed but some tiles were not written
type PartialError struct {
	Namespace string
	Failed    []WriteError
	Written   int
	Total     int
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("map %s completed with partial failure: %d/%d tiles failed", e.Namespace, len(e.Failed), e.Total)
}
