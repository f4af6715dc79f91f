// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/listenupapp/exhibit-server/internal/validation"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Exhibit ExhibitConfig
	Server  ServerConfig
	Ingest  IngestConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds storage configuration.
type DataConfig struct {
	// Path holds the search index, sidecar store and field registry.
	Path string
}

// ExhibitConfig describes the exhibit documents are built for.
type ExhibitConfig struct {
	ID               string // Default exhibit for the CLI and dropbox
	IIIFBase         string // IIIF image service base URL
	SurrogatePostfix string // File surrogate key holding image URLs (default: iiif)
	FacetStrategy    string // structured or positional (default: structured)
	VocabularyPath   string // Optional; embedded vocabulary when empty
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 60s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed origins (default: *)
}

// IngestConfig holds ingestion configuration.
type IngestConfig struct {
	Workers     int           // Concurrent items per batch (default: 4)
	ItemTimeout time.Duration // Per-item deadline (default: 30s)
	RateLimit   float64       // Batches per second per exhibit (default: 2)
	RateBurst   int           // Burst of batches per exhibit (default: 5)
	DropboxPath string        // Optional watched folder for item files
}

// flags are the command-line overrides. Empty means "not given".
type flags struct {
	env, logLevel, dataPath, envFile                                     *string
	exhibitID, iiifBase, surrogatePostfix, facetStrategy, vocabularyPath *string
	port, readTimeout, writeTimeout, idleTimeout, corsOrigins            *string
	workers, itemTimeout, rateLimit, rateBurst, dropboxPath              *string
}

func registerFlags(fs *flag.FlagSet) *flags {
	return &flags{
		env:              fs.String("env", "", "Environment (development, staging, production)"),
		logLevel:         fs.String("log-level", "", "Log level (debug, info, warn, error)"),
		dataPath:         fs.String("data-path", "", "Base path for index and store data"),
		envFile:          fs.String("env-file", ".env", "Path to .env file"),
		exhibitID:        fs.String("exhibit", "", "Default exhibit ID"),
		iiifBase:         fs.String("iiif-base", "", "IIIF image service base URL"),
		surrogatePostfix: fs.String("surrogate-postfix", "", "File surrogate holding IIIF images (default: iiif)"),
		facetStrategy:    fs.String("facet-strategy", "", "Facet strategy: structured or positional"),
		vocabularyPath:   fs.String("vocabulary", "", "Path to a vocabulary YAML file"),
		port:             fs.String("port", "", "Server port (default: 8080)"),
		readTimeout:      fs.String("read-timeout", "", "HTTP read timeout (default: 15s)"),
		writeTimeout:     fs.String("write-timeout", "", "HTTP write timeout (default: 60s)"),
		idleTimeout:      fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)"),
		corsOrigins:      fs.String("cors-origins", "", "Comma-separated allowed origins (default: *)"),
		workers:          fs.String("ingest-workers", "", "Concurrent items per ingest batch (default: 4)"),
		itemTimeout:      fs.String("ingest-item-timeout", "", "Per-item ingest deadline (default: 30s)"),
		rateLimit:        fs.String("ingest-rate-limit", "", "Ingest batches per second per exhibit (default: 2)"),
		rateBurst:        fs.String("ingest-rate-burst", "", "Ingest batch burst per exhibit (default: 5)"),
		dropboxPath:      fs.String("dropbox", "", "Folder watched for item JSON files"),
	}
}

// LoadConfig loads configuration from the process command line.
func LoadConfig() (*Config, error) {
	return Load(flag.CommandLine, os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
//
// Flags are registered on fs, so callers may add their own before calling Load.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	f := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*f.envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*f.env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*f.logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			Path: getConfigValue(*f.dataPath, "DATA_PATH", ""),
		},
		Exhibit: ExhibitConfig{
			ID:               getConfigValue(*f.exhibitID, "EXHIBIT_ID", ""),
			IIIFBase:         getConfigValue(*f.iiifBase, "IIIF_MANIFEST_BASE", "https://repository.dri.ie/iiif/2"),
			SurrogatePostfix: getConfigValue(*f.surrogatePostfix, "SURROGATE_POSTFIX", "iiif"),
			FacetStrategy:    getConfigValue(*f.facetStrategy, "FACET_STRATEGY", "structured"),
			VocabularyPath:   getConfigValue(*f.vocabularyPath, "VOCABULARY_PATH", ""),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*f.port, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*f.corsOrigins, "CORS_ORIGINS", "*")),
		},
		Ingest: IngestConfig{
			Workers:     getIntConfigValue(*f.workers, "INGEST_WORKERS", 4),
			RateBurst:   getIntConfigValue(*f.rateBurst, "INGEST_RATE_BURST", 5),
			DropboxPath: getConfigValue(*f.dropboxPath, "DROPBOX_PATH", ""),
		},
	}

	var err error
	if cfg.Ingest.RateLimit, err = getFloatConfigValue(*f.rateLimit, "INGEST_RATE_LIMIT", 2); err != nil {
		return nil, err
	}

	durations := []struct {
		dst            *time.Duration
		flagValue, key string
		defaultValue   string
	}{
		{&cfg.Server.ReadTimeout, *f.readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *f.writeTimeout, "SERVER_WRITE_TIMEOUT", "60s"},
		{&cfg.Server.IdleTimeout, *f.idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Ingest.ItemTimeout, *f.itemTimeout, "INGEST_ITEM_TIMEOUT", "30s"},
	}
	for _, d := range durations {
		if *d.dst, err = getDurationConfigValue(d.flagValue, d.key, d.defaultValue); err != nil {
			return nil, err
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.Path == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	switch c.Exhibit.FacetStrategy {
	case "structured", "positional":
	default:
		return fmt.Errorf("invalid facet strategy: %s (must be structured or positional)", c.Exhibit.FacetStrategy)
	}

	if c.Exhibit.ID != "" && !validation.IsExhibitID(c.Exhibit.ID) {
		return fmt.Errorf("invalid exhibit ID: %s (letters, digits and '_' only)", c.Exhibit.ID)
	}

	if c.Exhibit.SurrogatePostfix == "" {
		return errors.New("SURROGATE_POSTFIX cannot be empty")
	}

	if c.Ingest.Workers < 1 {
		return fmt.Errorf("invalid ingest workers: %d (must be at least 1)", c.Ingest.Workers)
	}
	if c.Ingest.ItemTimeout <= 0 {
		return errors.New("INGEST_ITEM_TIMEOUT must be positive")
	}
	if c.Ingest.RateLimit <= 0 || c.Ingest.RateBurst < 1 {
		return errors.New("ingest rate limit and burst must be positive")
	}

	return nil
}

// SQLitePath returns the field registry database path.
func (c *Config) SQLitePath() string { return filepath.Join(c.Data.Path, "exhibit.db") }

// SidecarPath returns the sidecar store directory.
func (c *Config) SidecarPath() string { return filepath.Join(c.Data.Path, "sidecars") }

// IndexPath returns the search index directory.
func (c *Config) IndexPath() string { return filepath.Join(c.Data.Path, "search") }

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data, vocabulary and dropbox paths.
// The data path defaults to ~/ExhibitServer/data.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.Data.Path, err = expandPath(c.Data.Path, filepath.Join(homeDir, "ExhibitServer", "data")); err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	if c.Exhibit.VocabularyPath, err = expandPath(c.Exhibit.VocabularyPath, ""); err != nil {
		return fmt.Errorf("invalid vocabulary path: %w", err)
	}
	if c.Ingest.DropboxPath, err = expandPath(c.Ingest.DropboxPath, ""); err != nil {
		return fmt.Errorf("invalid dropbox path: %w", err)
	}
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return result, nil
}

// getDurationConfigValue returns a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
