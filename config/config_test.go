package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubenschmidt/go-bookmatch/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10, cfg.Index.K)
	assert.Equal(t, []float64{1, 1, 1, 1}, cfg.Index.Weights)
	assert.Equal(t, 3, cfg.Recommend.MaxResults)
	assert.Equal(t, ',', cfg.Ingest.Comma())
	assert.False(t, cfg.Ingest.RebuildOnStartup)
	assert.Empty(t, cfg.Database.DSN)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmatch.yaml")
	yaml := `
server:
  addr: ":9090"
  read_timeout: 3s
database:
  dsn: badger:///tmp/books
ingest:
  books_path: /data/books.csv
  delimiter: ";"
index:
  k: 20
  weights: [1, 0.001, 1, 0.5]
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("BOOKMATCH_RECOMMEND_MAX_RESULTS", "5")
	t.Setenv("BOOKMATCH_INGEST_REBUILD_ON_STARTUP", "true")
	t.Setenv("BOOKMATCH_SERVER_WRITE_TIMEOUT", "1m")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "badger:///tmp/books", cfg.Database.DSN)
	assert.Equal(t, "/data/books.csv", cfg.Ingest.BooksPath)
	assert.Equal(t, "data/Ratings.csv", cfg.Ingest.RatingsPath)
	assert.Equal(t, ';', cfg.Ingest.Comma())
	assert.True(t, cfg.Ingest.RebuildOnStartup)
	assert.Equal(t, 20, cfg.Index.K)
	assert.Equal(t, [4]float64{1, 0.001, 1, 0.5}, cfg.Index.IndexWeights())
	assert.Equal(t, 5, cfg.Recommend.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvWeightsList(t *testing.T) {
	t.Setenv("BOOKMATCH_INDEX_WEIGHTS", "2, 0.5 ,1,1")
	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 0.5, 1, 1}, cfg.Index.Weights)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"Zero k", func(c *Config) { c.Index.K = 0 }},
		{"Three weights", func(c *Config) { c.Index.Weights = []float64{1, 1, 1} }},
		{"Negative weight", func(c *Config) { c.Index.Weights = []float64{1, -1, 1, 1} }},
		{"All zero weights", func(c *Config) { c.Index.Weights = []float64{0, 0, 0, 0} }},
		{"Zero max results", func(c *Config) { c.Recommend.MaxResults = 0 }},
		{"Bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"No addr", func(c *Config) { c.Server.Addr = "" }},
		{"Long delimiter", func(c *Config) { c.Ingest.Delimiter = "||" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInvalidConfig))
		})
	}

	assert.NoError(t, Default().Validate())

	partial := Default()
	partial.Index.Weights = []float64{0, 1, 0, 0}
	assert.NoError(t, partial.Validate())
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "ingest.rebuild_on_startup", envTransform("BOOKMATCH_INGEST_REBUILD_ON_STARTUP"))
	assert.Equal(t, "database.dsn", envTransform("BOOKMATCH_DATABASE_DSN"))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
