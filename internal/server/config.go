package server

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/iwvelando/capital-budget/internal/config"
	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/validation"
	"github.com/spf13/viper"
)

// Config defines runtime parameters for the HTTP server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	DiscountRate    float64              `yaml:"discountRate"`
	Logging         config.LoggingConfig `yaml:"logging"`
	uploadSizeBytes int64
}

// LoadConfig loads the server configuration from YAML and applies
// CAPITAL_BUDGET_* environment overrides, e.g. CAPITAL_BUDGET_ADDRESS or
// CAPITAL_BUDGET_LOGGING_LEVEL. A missing file leaves the defaults in place.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("address", constants.DefaultServerAddress)
	v.SetDefault("maxUploadSize", strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10))
	v.SetDefault("discountRate", constants.DefaultDiscountRate)
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read server config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode server config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the discount rate and resolves the upload limit.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}

	if err := validation.ValidateDiscountRate(c.DiscountRate); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	size, err := validation.ParseByteSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size
	return nil
}

// UploadSizeBytes returns the upload limit resolved by Validate.
func (c *Config) UploadSizeBytes() int64 {
	if c.uploadSizeBytes <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return c.uploadSizeBytes
}
