// Package logging builds the logger shared by all commands.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/shiena/ansicolor"
	"github.com/sirupsen/logrus"
)

// Config selects where log lines go
type Config struct {
	Level    string
	Dir      string
	Terminal bool
}

// New creates a logger writing to the terminal and/or a daily file in
// cfg.Dir. An unknown level falls back to info.
func New(cfg Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	outputs := make([]io.Writer, 0, 2)
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, err
		}
		name := filepath.Join(cfg.Dir, time.Now().Format("2006-01-02.log"))
		file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, file)
	}
	if cfg.Terminal || len(outputs) == 0 {
		outputs = append(outputs, os.Stderr)
	}
	log.SetOutput(ansicolor.NewAnsiColorWriter(io.MultiWriter(outputs...)))

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log, nil
}
