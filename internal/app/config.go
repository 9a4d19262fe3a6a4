package app

import (
	"errors"
	"fmt"

	"github.com/vk/opmeter/internal/stat"
)

// Overrides replaces measurement settings from graph files. Nil fields leave
// the file's value in place.
type Overrides struct {
	FoldRepeat      *bool
	Warmup          *int
	BenchmarkRepeat *int
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GraphPaths []string // hcl files or directories
	Facets     []stat.Kind
	Rebase     string // operation id to re-root every graph at
	ProfileDir string // pprof output directory, disabled when empty

	LogFormat string
	LogLevel  string
	Overrides Overrides
}

// DefaultFacets are measured when Config.Facets is empty.
var DefaultFacets = []stat.Kind{stat.KindParam, stat.KindCal, stat.KindMem}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.GraphPaths) == 0 {
		return nil, errors.New("GraphPaths is a required configuration field and cannot be empty")
	}
	if len(cfg.Facets) == 0 {
		cfg.Facets = DefaultFacets
	}
	seen := make(map[stat.Kind]struct{})
	for _, k := range cfg.Facets {
		if _, err := stat.ParseKind(string(k)); err != nil {
			return nil, err
		}
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("facet '%s' listed twice", k)
		}
		seen[k] = struct{}{}
	}
	if o := cfg.Overrides; (o.Warmup != nil && *o.Warmup < 0) || (o.BenchmarkRepeat != nil && *o.BenchmarkRepeat < 1) {
		return nil, errors.New("warmup must be >= 0 and benchmark repeat must be >= 1")
	}
	return &cfg, nil
}
