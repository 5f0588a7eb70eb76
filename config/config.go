// Package config loads the settings of the application from the environment
// and from the JSON configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/etnz/sidekick/logger"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	GhostfolioURL     string
	AccessToken       string
	FileImporterPath  string
	ConfigurationFile string
	LogLevel          string
	LogPretty         bool
	Concurrency       int  // accounts imported at once
	CreateAccounts    bool // create configured accounts missing remotely

	// File is the content of ConfigurationFile, empty when none is set.
	File File
}

// Load reads configuration from environment variables. A .env file in the
// working directory is read first, when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := &Config{
		GhostfolioURL:     strings.TrimRight(getEnv("GHOSTFOLIO_URL", ""), "/"),
		AccessToken:       getEnv("GHOSTFOLIO_ACCESTOKEN", ""),
		FileImporterPath:  getEnv("FILEIMPORTER_PATH", ""),
		ConfigurationFile: getEnv("CONFIGURATIONFILE_PATH", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPretty:         getEnvAsBool("LOG_PRETTY", false, &errs),
		Concurrency:       getEnvAsInt("IMPORT_CONCURRENCY", 4, &errs),
		CreateAccounts:    getEnvAsBool("CREATE_ACCOUNTS", true, &errs),
	}
	if err := errors.Join(append(errs, cfg.Validate())...); err != nil {
		return nil, err
	}

	if cfg.ConfigurationFile != "" {
		f, err := LoadFile(cfg.ConfigurationFile)
		if err != nil {
			return nil, err
		}
		cfg.File = f
	}
	return cfg, nil
}

// Validate checks that the settings required to talk to the remote ledger are
// set and that the log level is known.
func (c *Config) Validate() error {
	if c.GhostfolioURL == "" {
		return fmt.Errorf("GHOSTFOLIO_URL is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("GHOSTFOLIO_ACCESTOKEN is required")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("IMPORT_CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the integer value of key, defaultValue when unset. A
// malformed value is appended to errs.
func getEnvAsInt(key string, defaultValue int, errs *[]error) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, valueStr))
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool, errs *[]error) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, valueStr))
		return defaultValue
	}
	return value
}
