package main

import (
	"flag"
	"fmt"

	"github.com/iwvelando/capital-budget/internal/config"
	"github.com/iwvelando/capital-budget/internal/evaluate"
	"github.com/iwvelando/capital-budget/internal/logging"
	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/output"
	"github.com/iwvelando/capital-budget/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", constants.DefaultEnvFile, "dotenv file with CAPITAL_BUDGET_* overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	discountRate := flag.Float64("discount-rate", constants.DefaultDiscountRate, "discount rate override as a fraction (0.10 is 10%)")
	flag.Parse()

	discountRateSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "discount-rate" {
			discountRateSet = true
		}
	})

	// Environment overrides must be in place before the config is read
	envLoadErr := config.LoadDotEnv(*envFile)

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	if envLoadErr != nil {
		logger.Warn("failed to load environment file",
			zap.String("op", "main"),
			zap.Error(envLoadErr),
		)
	}

	// CLI overrides take precedence over the config file
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	conf.Output.Format = outputFormat

	if discountRateSet {
		conf.DiscountRate = *discountRate
	}

	evaluation, err := evaluate.GetEvaluation(logger, *conf)
	if err != nil {
		logger.Fatal("failed to evaluate projects",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	for _, warning := range evaluation.Warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(evaluation)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(evaluation)
	case constants.OutputFormatJSON:
		err = output.JSONFormat(evaluation)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
