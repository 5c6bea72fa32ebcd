// Package config loads the server configuration from defaults, an optional
// YAML file and ORIGIN_MCP_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable, e.g. ORIGIN_MCP_MODE.
const EnvPrefix = "ORIGIN_MCP"

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete server configuration.
type Config struct {
	// Mode is "new" to launch a private Origin instance or "attach" to use
	// the running one.
	Mode         string        `yaml:"mode" envconfig:"MODE" validate:"oneof=new attach"`
	ProgID       string        `yaml:"prog_id" envconfig:"PROG_ID"`
	ReadyTimeout time.Duration `yaml:"ready_timeout" envconfig:"READY_TIMEOUT" validate:"gt=0"`
	// PageSize is the number of cells returned per page by the sheet reader.
	PageSize int       `yaml:"page_size" envconfig:"PAGE_SIZE" validate:"min=1"`
	Log      LogConfig `yaml:"log" envconfig:"LOG"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Mode:         "new",
		ReadyTimeout: 60 * time.Second,
		PageSize:     5000,
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration. path may be empty, in which case no file is
// read.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
