package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := NewConfig()
	cfg.SourceTable = "bench.vehicles"
	cfg.CategoryColumn = "make"
	return cfg
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "treeline.db", cfg.WarehousePath)
	assert.Equal(t, "price", cfg.PriceColumn)
	assert.InDelta(t, float64(DefaultPriceCap), cfg.PriceCap, 0)
	assert.Equal(t, DefaultMaxCategories, cfg.MaxCategories)
	assert.Equal(t, DefaultAmplifyRounds, cfg.AmplifyRounds)
	assert.InDelta(t, DefaultTrainWeight, cfg.TrainWeight, 0)
	assert.InDelta(t, DefaultTestWeight, cfg.TestWeight, 0)
	assert.Equal(t, DefaultRounds, cfg.Rounds)
	assert.Equal(t, DefaultHistBins, cfg.HistBins)
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{SourceTable: "bench.vehicles", PriceCap: 50000}
	filled := cfg.WithDefaults()

	// explicit values survive
	assert.Equal(t, "bench.vehicles", filled.SourceTable)
	assert.InDelta(t, 50000.0, filled.PriceCap, 0)
	// zero values are filled
	assert.Equal(t, "price", filled.PriceColumn)
	assert.Equal(t, DefaultRounds, filled.Rounds)
	assert.Equal(t, uint64(DefaultSplitSeed), filled.SplitSeed)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing source table", mutate: func(c *Config) { c.SourceTable = "" }},
		{name: "missing price column", mutate: func(c *Config) { c.PriceColumn = "" }},
		{name: "non-positive price cap", mutate: func(c *Config) { c.PriceCap = 0 }},
		{name: "missing category column", mutate: func(c *Config) { c.CategoryColumn = "" }},
		{name: "non-positive max categories", mutate: func(c *Config) { c.MaxCategories = 0 }},
		{name: "negative amplify rounds", mutate: func(c *Config) { c.AmplifyRounds = -1 }},
		{name: "zero train weight", mutate: func(c *Config) { c.TrainWeight = 0 }},
		{name: "zero test weight", mutate: func(c *Config) { c.TestWeight = 0 }},
		{name: "zero rounds", mutate: func(c *Config) { c.Rounds = 0 }},
		{name: "learning rate above one", mutate: func(c *Config) { c.LearningRate = 1.1 }},
		{name: "zero max depth", mutate: func(c *Config) { c.MaxDepth = 0 }},
		{name: "one histogram bin", mutate: func(c *Config) { c.HistBins = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `
source_table: bench.vehicles
category_column: make
price_cap: 80000
drop_columns:
  - vin
  - description
verbose_logging: true
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "bench.vehicles", cfg.SourceTable)
		assert.InDelta(t, 80000.0, cfg.PriceCap, 0)
		assert.Equal(t, []string{"vin", "description"}, cfg.DropColumns)
		assert.True(t, cfg.VerboseLogging)
		// defaults fill the rest
		assert.Equal(t, DefaultRounds, cfg.Rounds)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		content := `{"source_table": "bench.vehicles", "category_column": "make", "max_categories": 500}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, 500, cfg.MaxCategories)
		assert.Equal(t, "make", cfg.CategoryColumn)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("source_table: [unclosed"), 0o600))

		_, err := LoadFromFile(path)
		assert.Error(t, err)
	})
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("TREELINE_SOURCE_TABLE", "bench.vehicles")
	t.Setenv("TREELINE_CATEGORY_COLUMN", "make")
	t.Setenv("TREELINE_PRICE_CAP", "75000")
	t.Setenv("TREELINE_MAX_CATEGORIES", "200")
	t.Setenv("TREELINE_DROP_COLUMNS", "vin,description")
	t.Setenv("TREELINE_SPLIT_SEED", "99")
	t.Setenv("TREELINE_LEARNING_RATE", "0.1")
	t.Setenv("TREELINE_VERBOSE_LOGGING", "true")

	cfg := LoadFromEnv()

	assert.Equal(t, "bench.vehicles", cfg.SourceTable)
	assert.Equal(t, "make", cfg.CategoryColumn)
	assert.InDelta(t, 75000.0, cfg.PriceCap, 0)
	assert.Equal(t, 200, cfg.MaxCategories)
	assert.Equal(t, []string{"vin", "description"}, cfg.DropColumns)
	assert.Equal(t, uint64(99), cfg.SplitSeed)
	assert.InDelta(t, 0.1, cfg.LearningRate, 0)
	assert.True(t, cfg.VerboseLogging)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("TREELINE_PRICE_CAP", "not-a-number")
	t.Setenv("TREELINE_ROUNDS", "many")

	cfg := LoadFromEnv()
	assert.InDelta(t, float64(DefaultPriceCap), cfg.PriceCap, 0)
	assert.Equal(t, DefaultRounds, cfg.Rounds)
}
