// Package constants provides shared constants for the capital-budget application.
package constants

// Appraisal defaults
const (
	// DefaultDiscountRate is the rate used for NPV when none is configured (10%)
	DefaultDiscountRate = 0.10

	// IRRInitialGuess is the Newton-Raphson starting rate
	IRRInitialGuess = 0.10

	// IRRTolerance is the absolute tolerance on successive rate estimates
	IRRTolerance = 0.0001

	// IRRMaxIterations bounds the Newton-Raphson loop
	IRRMaxIterations = 1000

	// DecimalPrecision is the precision for display rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01
)

// Worksheet limits
const (
	// DefaultProjectCount is the number of projects a new worksheet starts with
	DefaultProjectCount = 1

	// DefaultYearCount is the number of years a new worksheet starts with
	DefaultYearCount = 4

	// MaxProjects caps the number of projects accepted in one computation
	MaxProjects = 100

	// MaxYears caps the number of years accepted per project
	MaxYears = 200
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of configuration keys
	EnvPrefix = "CAPITAL_BUDGET"

	// DefaultEnvFile is the dotenv file read at startup, if present
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML configs (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
