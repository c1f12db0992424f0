// Package config loads bookmatch settings from defaults, an optional YAML
// file and BOOKMATCH_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hubenschmidt/go-bookmatch/core"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Index     IndexConfig     `koanf:"index"`
	Recommend RecommendConfig `koanf:"recommend"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Addr         string        `koanf:"addr" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
}

// DatabaseConfig selects the catalog store; see store.NewStore for DSN forms.
type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type IngestConfig struct {
	BooksPath        string `koanf:"books_path" validate:"required"`
	RatingsPath      string `koanf:"ratings_path" validate:"required"`
	Delimiter        string `koanf:"delimiter" validate:"len=1"`
	RebuildOnStartup bool   `koanf:"rebuild_on_startup"`
}

// IndexConfig controls the similarity index. Weights scale the four feature
// dimensions (avg rating, rating count, rating std, year) inside the
// distance.
type IndexConfig struct {
	K       int       `koanf:"k" validate:"min=1"`
	Weights []float64 `koanf:"weights" validate:"len=4,dive,gte=0"`
}

type RecommendConfig struct {
	MaxResults int `koanf:"max_results" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Ingest: IngestConfig{
			BooksPath:   "data/Books.csv",
			RatingsPath: "data/Ratings.csv",
			Delimiter:   ",",
		},
		Index: IndexConfig{
			K:       10,
			Weights: []float64{1, 1, 1, 1},
		},
		Recommend: RecommendConfig{MaxResults: 3},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field constraint and reports all failures at once.
func (c *Config) Validate() error {
	var msgs []string
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", core.ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	if c.Index.allZeroWeights() {
		msgs = append(msgs, "Config.Index.Weights must have a non-zero entry")
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrInvalidConfig, strings.Join(msgs, "; "))
}

// allZeroWeights reports a weight vector that would make every distance 0.
func (c IndexConfig) allZeroWeights() bool {
	if len(c.Weights) == 0 {
		return false
	}
	for _, w := range c.Weights {
		if w != 0 {
			return false
		}
	}
	return true
}

// Comma returns the ingest delimiter as a rune.
func (c IngestConfig) Comma() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

// IndexWeights returns Weights as a fixed-size array.
func (c IndexConfig) IndexWeights() [4]float64 {
	var w [4]float64
	copy(w[:], c.Weights)
	return w
}
