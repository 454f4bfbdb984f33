package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables, e.g. DVPLOT_NSE_TIMEOUT.
const envPrefix = "DVPLOT"

// Config is the complete application configuration. Precedence, lowest to
// highest: built-in defaults, optional YAML file, environment variables.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	NSE      NSEConfig      `yaml:"nse" envconfig:"NSE"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// PipelineConfig controls the volatility run itself.
type PipelineConfig struct {
	LookbackDays  int    `yaml:"lookback_days" envconfig:"LOOKBACK_DAYS" validate:"gt=0"`
	OutputDir     string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	BinningPolicy string `yaml:"binning_policy" envconfig:"BINNING_POLICY" validate:"oneof=sqrt stddev"`
}

// NSEConfig controls the NSE API client.
type NSEConfig struct {
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND" validate:"gt=0"`
	Burst             int           `yaml:"burst" envconfig:"BURST" validate:"gt=0"`
	ChunkDays         int           `yaml:"chunk_days" envconfig:"CHUNK_DAYS" validate:"gt=0"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES" validate:"gte=0"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			LookbackDays:  365,
			OutputDir:     "output",
			BinningPolicy: "sqrt",
		},
		NSE: NSEConfig{
			BaseURL:           "https://www.nseindia.com",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			Burst:             1,
			ChunkDays:         90,
			MaxRetries:        3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, then validates it. An empty path skips the file layer;
// a named file that does not exist is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
