// Package config loads the YAML pipeline configuration used by the CLI.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level configuration file.
type Pipeline struct {
	// Year bounds the normalized calendar; zero picks the busiest year.
	Year int `yaml:"year" validate:"gte=0"`
	// Seed feeds the generator used for default route colors.
	Seed int64 `yaml:"seed"`
	// MaxSpeed caps the plausible approach speed per mode, in km/h, for the
	// bad-coordinate filter. Left empty, built-in limits apply.
	MaxSpeed ModeValues `yaml:"max_speed"`
	// Transfers configures the transfer matching stage.
	Transfers Transfers `yaml:"transfers"`
}

// Transfers mirrors the transfer matching knobs.
type Transfers struct {
	MaxDistance    ModeValues `yaml:"max_distance"`
	MinDwell       ModeValues `yaml:"min_dwell"`
	WalkSpeed      float64    `yaml:"walk_speed" validate:"gt=0"`
	MaxWait        int        `yaml:"max_wait" validate:"gt=0"`
	ReverseWait    bool       `yaml:"reverse_wait"`
	KeepSameAgency bool       `yaml:"keep_same_agency"`
}

// ModeValues is a default value with optional per-mode overrides, keyed by
// mode name ("bus", "rail", "subway", "tram", "ferry", ...).
type ModeValues struct {
	Default float64            `yaml:"default" validate:"gte=0"`
	Modes   map[string]float64 `yaml:"modes" validate:"dive,gte=0"`
}

// Default is the configuration used when no file is given.
func Default() *Pipeline {
	return &Pipeline{
		Seed: 1,
		Transfers: Transfers{
			MaxDistance: ModeValues{Default: 100},
			MinDwell:    ModeValues{Default: 2},
			WalkSpeed:   1.0,
			MaxWait:     60,
		},
	}
}

// Load reads and validates a pipeline configuration file. Omitted fields
// keep their defaults.
func Load(path string) (*Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return cfg, nil
}
