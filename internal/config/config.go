// Package config defines the data structures related to configuration and
// includes functions for loading and checking the config.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for capital-budget.
type Configuration struct {
	Logging      LoggingConfig `yaml:"logging,omitempty"`
	Output       OutputConfig  `yaml:"output,omitempty"`
	DiscountRate float64       `yaml:"discountRate"`
	Projects     []Project     `yaml:"projects"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// Project is one candidate investment. CashFlows holds one raw entry per
// year, starting with the initial investment in year 0.
type Project struct {
	Name      string   `yaml:"name,omitempty"`
	CashFlows []string `yaml:"cashFlows"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys can be overridden from the environment with the
// CAPITAL_BUDGET_ prefix, e.g. CAPITAL_BUDGET_DISCOUNTRATE=0.08.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
// Environment overrides are not applied.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetDefault("discountRate", constants.DefaultDiscountRate)
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	return &configuration, nil
}

// YearCount returns the number of years of the longest project, at least 1.
func (c *Configuration) YearCount() int {
	years := 1
	for _, project := range c.Projects {
		if len(project.CashFlows) > years {
			years = len(project.CashFlows)
		}
	}
	return years
}

// Validate returns an error for configurations that cannot be evaluated. The
// output format is left to the command line tool, the only user of it.
func (c *Configuration) Validate() error {
	if len(c.Projects) == 0 {
		return fmt.Errorf("configuration defines no projects")
	}
	if err := validation.ValidateDiscountRate(c.DiscountRate); err != nil {
		return err
	}
	return validation.ValidateDimensions(len(c.Projects), c.YearCount())
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if warning := validation.DiscountRateWarning(c.DiscountRate); warning != "" {
		warnings = append(warnings, warning)
	}

	years := c.YearCount()
	seen := make(map[string]int)
	for i, project := range c.Projects {
		label := project.Label(i)
		name := strings.TrimSpace(project.Name)
		if name == "" {
			warnings = append(warnings, fmt.Sprintf("project %d has no name, using %q", i+1, label))
		} else if first, dup := seen[name]; dup {
			warnings = append(warnings, fmt.Sprintf("project %d has the same name as project %d (%q)", i+1, first+1, name))
		} else {
			seen[name] = i
		}

		if len(project.CashFlows) < years {
			warnings = append(warnings, fmt.Sprintf("%s has %d years of cash flows, padding to %d with zeros",
				label, len(project.CashFlows), years))
		}
	}

	return warnings
}

// Label returns the project's name, or "Project N" (1-based) when unnamed.
func (p Project) Label(index int) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Project %d", index+1)
}
