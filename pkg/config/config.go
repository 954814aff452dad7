// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/user/termvis/pkg/adapters/termsurface"
	"github.com/user/termvis/pkg/backend"
	"github.com/user/termvis/pkg/convert"
	"github.com/user/termvis/pkg/player"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/visual"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for termvis.
type Config struct {
	// Decoding
	Backend          string `yaml:"backend"`
	Filter           string `yaml:"filter"`
	MaxDecodeRetries int    `yaml:"max_decode_retries"`
	FFmpegPath       string `yaml:"ffmpeg_path"`

	// Placement
	Scale   string          `yaml:"scale"`
	Place   PlacementConfig `yaml:"place"`
	Blitter string          `yaml:"blitter"`

	// Playback
	Timescale float64 `yaml:"timescale"`
	Subtitles bool    `yaml:"subtitles"`

	// Debug
	DumpDir  string `yaml:"dump_dir"`
	LogLevel string `yaml:"log_level"`
}

// PlacementConfig is the cell the visual's top-left corner is placed on.
type PlacementConfig struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Decoding
		Backend:          backend.Video.String(),
		Filter:           string(convert.FilterLanczos),
		MaxDecodeRetries: visual.DefaultMaxDecodeRetries,

		// Placement
		Scale:   visual.ScaleScale.String(),
		Blitter: "auto",

		// Playback
		Timescale: 1.0,
		Subtitles: true,

		// Debug
		LogLevel: "info",
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks every enumerated and numeric field.
func (c Config) Validate() error {
	if _, err := backend.ParseKind(c.Backend); err != nil {
		return fmt.Errorf("%w: backend: %w", ErrInvalid, err)
	}
	if _, err := convert.ParseFilter(c.Filter); err != nil {
		return fmt.Errorf("%w: filter: %w", ErrInvalid, err)
	}
	if _, err := visual.ParseScale(c.Scale); err != nil {
		return fmt.Errorf("%w: scale: %w", ErrInvalid, err)
	}
	if _, err := termsurface.ParseBlitter(c.Blitter); err != nil {
		return fmt.Errorf("%w: blitter: %w", ErrInvalid, err)
	}
	if c.Timescale <= 0 {
		return fmt.Errorf("%w: timescale must be positive, got %g", ErrInvalid, c.Timescale)
	}
	if c.Place.Row < 0 || c.Place.Col < 0 {
		return fmt.Errorf("%w: placement %d,%d", ErrInvalid, c.Place.Row, c.Place.Col)
	}
	if c.MaxDecodeRetries < 0 {
		return fmt.Errorf("%w: max_decode_retries must not be negative", ErrInvalid)
	}
	return nil
}

// BackendKind returns the configured backend kind.
func (c Config) BackendKind() (backend.Kind, error) {
	return backend.ParseKind(c.Backend)
}

// BlitterMode returns the configured blitter.
func (c Config) BlitterMode() (termsurface.Blitter, error) {
	return termsurface.ParseBlitter(c.Blitter)
}

// Level returns the configured log level.
func (c Config) Level() ports.LogLevel {
	return ports.ParseLogLevel(c.LogLevel)
}

// BackendOptions returns the options for backend.New.
func (c Config) BackendOptions(log ports.Logger) backend.Options {
	return backend.Options{
		FFmpegPath: c.FFmpegPath,
		Logger:     log,
	}
}

// ToPlayerConfig converts to player.Config.
func (c Config) ToPlayerConfig() (player.Config, error) {
	if err := c.Validate(); err != nil {
		return player.Config{}, err
	}
	scale, _ := visual.ParseScale(c.Scale)
	filter, _ := convert.ParseFilter(c.Filter)

	cfg := player.DefaultConfig()
	cfg.Scale = scale
	cfg.PlaceRow = c.Place.Row
	cfg.PlaceCol = c.Place.Col
	cfg.Filter = filter
	if c.MaxDecodeRetries > 0 {
		cfg.MaxDecodeRetries = c.MaxDecodeRetries
	}
	cfg.Timescale = c.Timescale
	cfg.Subtitles = c.Subtitles
	return cfg, nil
}
