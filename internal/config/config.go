// Package config provides configuration management for the benchmark
// pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config describes one pipeline run.
type Config struct {
	// Warehouse
	WarehousePath string `json:"warehouse_path" yaml:"warehouse_path"` // bolt database file
	SourceTable   string `json:"source_table" yaml:"source_table"`     // qualified table name to load

	// Cleaning
	PriceColumn string   `json:"price_column" yaml:"price_column"` // numeric column the cap applies to
	PriceCap    float64  `json:"price_cap" yaml:"price_cap"`       // rows at or above this are removed
	DropColumns []string `json:"drop_columns" yaml:"drop_columns"` // identifier/free-text columns to discard

	// Cardinality reduction
	CategoryColumn string `json:"category_column" yaml:"category_column"` // long-tail column to reduce
	MaxCategories  int    `json:"max_categories" yaml:"max_categories"`   // distinct values kept

	// Volume amplification
	AmplifyRounds int `json:"amplify_rounds" yaml:"amplify_rounds"` // self-union rounds (2^k row factor)

	// Split
	TrainWeight float64 `json:"train_weight" yaml:"train_weight"`
	TestWeight  float64 `json:"test_weight" yaml:"test_weight"`
	SplitSeed   uint64  `json:"split_seed" yaml:"split_seed"`

	// Training
	Rounds       int     `json:"rounds" yaml:"rounds"`               // boosting rounds per model
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"` //
	MaxDepth     int     `json:"max_depth" yaml:"max_depth"`         //
	HistBins     int     `json:"hist_bins" yaml:"hist_bins"`         // histogram bins for the hist method
	PoolSize     int     `json:"pool_size" yaml:"pool_size"`         // parallel device workers (0 = CPU count)

	// Output
	PlotPath       string `json:"plot_path" yaml:"plot_path"` // scatter PNG destination ("" disables)
	VerboseLogging bool   `json:"verbose_logging" yaml:"verbose_logging"`
}

// Default configuration values.
const (
	DefaultPriceCap      = 100000
	DefaultMaxCategories = 1000
	DefaultAmplifyRounds = 2
	DefaultTrainWeight   = 0.95
	DefaultTestWeight    = 0.05
	DefaultSplitSeed     = 42
	DefaultRounds        = 50
	DefaultLearningRate  = 0.3
	DefaultMaxDepth      = 6
	DefaultHistBins      = 64
)

// NewConfig creates a configuration with default values.
func NewConfig() Config {
	return Config{
		WarehousePath: "treeline.db",
		PriceColumn:   "price",
		PriceCap:      DefaultPriceCap,
		MaxCategories: DefaultMaxCategories,
		AmplifyRounds: DefaultAmplifyRounds,
		TrainWeight:   DefaultTrainWeight,
		TestWeight:    DefaultTestWeight,
		SplitSeed:     DefaultSplitSeed,
		Rounds:        DefaultRounds,
		LearningRate:  DefaultLearningRate,
		MaxDepth:      DefaultMaxDepth,
		HistBins:      DefaultHistBins,
	}
}

// WithDefaults returns a new configuration with default values filled in
// for zero values. Boolean fields are left as-is so an explicit false is
// distinguishable from unset.
func (c Config) WithDefaults() Config {
	defaults := NewConfig()

	if c.WarehousePath == "" {
		c.WarehousePath = defaults.WarehousePath
	}
	if c.PriceColumn == "" {
		c.PriceColumn = defaults.PriceColumn
	}
	if c.PriceCap == 0 {
		c.PriceCap = defaults.PriceCap
	}
	if c.MaxCategories == 0 {
		c.MaxCategories = defaults.MaxCategories
	}
	if c.AmplifyRounds == 0 {
		c.AmplifyRounds = defaults.AmplifyRounds
	}
	if c.TrainWeight == 0 {
		c.TrainWeight = defaults.TrainWeight
	}
	if c.TestWeight == 0 {
		c.TestWeight = defaults.TestWeight
	}
	if c.SplitSeed == 0 {
		c.SplitSeed = defaults.SplitSeed
	}
	if c.Rounds == 0 {
		c.Rounds = defaults.Rounds
	}
	if c.LearningRate == 0 {
		c.LearningRate = defaults.LearningRate
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = defaults.MaxDepth
	}
	if c.HistBins == 0 {
		c.HistBins = defaults.HistBins
	}

	return c
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.SourceTable == "" {
		return fmt.Errorf("SourceTable is required")
	}
	if c.PriceColumn == "" {
		return fmt.Errorf("PriceColumn is required")
	}
	if c.PriceCap <= 0 {
		return fmt.Errorf("PriceCap must be positive, got %g", c.PriceCap)
	}
	if c.CategoryColumn == "" {
		return fmt.Errorf("CategoryColumn is required")
	}
	if c.MaxCategories <= 0 {
		return fmt.Errorf("MaxCategories must be positive, got %d", c.MaxCategories)
	}
	if c.AmplifyRounds < 0 {
		return fmt.Errorf("AmplifyRounds must be non-negative, got %d", c.AmplifyRounds)
	}
	if c.TrainWeight <= 0 || c.TestWeight <= 0 {
		return fmt.Errorf("split weights must be positive, got %g/%g", c.TrainWeight, c.TestWeight)
	}
	if c.Rounds <= 0 {
		return fmt.Errorf("Rounds must be positive, got %d", c.Rounds)
	}
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("LearningRate must be in (0, 1], got %g", c.LearningRate)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("MaxDepth must be positive, got %d", c.MaxDepth)
	}
	if c.HistBins < 2 {
		return fmt.Errorf("HistBins must be at least 2, got %d", c.HistBins)
	}
	return nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from TREELINE_* environment variables on
// top of the defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("TREELINE_WAREHOUSE_PATH"); val != "" {
		config.WarehousePath = val
	}
	if val := os.Getenv("TREELINE_SOURCE_TABLE"); val != "" {
		config.SourceTable = val
	}
	if val := os.Getenv("TREELINE_PRICE_COLUMN"); val != "" {
		config.PriceColumn = val
	}
	if val := os.Getenv("TREELINE_PRICE_CAP"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.PriceCap = parsed
		}
	}
	if val := os.Getenv("TREELINE_DROP_COLUMNS"); val != "" {
		config.DropColumns = strings.Split(val, ",")
	}
	if val := os.Getenv("TREELINE_CATEGORY_COLUMN"); val != "" {
		config.CategoryColumn = val
	}
	if val := os.Getenv("TREELINE_MAX_CATEGORIES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxCategories = parsed
		}
	}
	if val := os.Getenv("TREELINE_AMPLIFY_ROUNDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.AmplifyRounds = parsed
		}
	}
	if val := os.Getenv("TREELINE_SPLIT_SEED"); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			config.SplitSeed = parsed
		}
	}
	if val := os.Getenv("TREELINE_ROUNDS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.Rounds = parsed
		}
	}
	if val := os.Getenv("TREELINE_LEARNING_RATE"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			config.LearningRate = parsed
		}
	}
	if val := os.Getenv("TREELINE_MAX_DEPTH"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxDepth = parsed
		}
	}
	if val := os.Getenv("TREELINE_HIST_BINS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.HistBins = parsed
		}
	}
	if val := os.Getenv("TREELINE_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.PoolSize = parsed
		}
	}
	if val := os.Getenv("TREELINE_PLOT_PATH"); val != "" {
		config.PlotPath = val
	}
	if val := os.Getenv("TREELINE_VERBOSE_LOGGING"); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			config.VerboseLogging = parsed
		}
	}

	return config
}
