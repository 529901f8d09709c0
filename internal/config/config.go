package config

import (
	"bytes"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fiddler/domain/params"
	"fiddler/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Generation GenerationConfig
	Archive    ArchiveConfig
	Server     ServerConfig
}

// GenerationConfig holds defaults for generation runs
type GenerationConfig struct {
	OutDir  string
	Workers int
	// Seed is nil when FIDDLER_SEED is unset, meaning a fresh seed per run.
	Seed       *int64
	ParamsFile string
}

// ArchiveConfig holds run archive settings
type ArchiveConfig struct {
	Enabled bool
	Driver  string
	DSN     string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	genConfig, err := loadGenerationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load generation configuration")
	}
	config.Generation = *genConfig

	config.Archive = *loadArchiveConfig()
	config.Server = *loadServerConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadGenerationConfig() (*GenerationConfig, error) {
	cfg := &GenerationConfig{
		OutDir:     getEnvOrDefault("FIDDLER_OUT_DIR", "./traces"),
		Workers:    getEnvIntOrDefault("FIDDLER_WORKERS", 1),
		ParamsFile: getEnvOrDefault("FIDDLER_PARAMS", ""),
	}
	if raw := os.Getenv("FIDDLER_SEED"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid("FIDDLER_SEED must be an integer, got " + strconv.Quote(raw))
		}
		cfg.Seed = &seed
	}
	return cfg, nil
}

func loadArchiveConfig() *ArchiveConfig {
	return &ArchiveConfig{
		Enabled: getEnvBoolOrDefault("ARCHIVE_ENABLED", false),
		Driver:  getEnvOrDefault("ARCHIVE_DRIVER", "sqlite3"),
		DSN:     getEnvOrDefault("ARCHIVE_DSN", "fiddler.db"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func validateConfig(config *Config) error {
	if config.Generation.Workers < 1 {
		return errors.ConfigInvalid("FIDDLER_WORKERS must be >= 1")
	}
	if config.Archive.Enabled {
		switch config.Archive.Driver {
		case "sqlite3", "postgres":
		default:
			return errors.ConfigInvalid("ARCHIVE_DRIVER must be sqlite3 or postgres, got " + config.Archive.Driver)
		}
		if config.Archive.DSN == "" {
			return errors.ConfigInvalid("ARCHIVE_DSN is required when the archive is enabled")
		}
	}
	return nil
}

// LoadParams reads a YAML preset. Keys absent from the file keep their
// params.Default() value; unknown keys are rejected. An empty path returns the
// defaults.
func LoadParams(path string) (params.Parameters, error) {
	if path == "" {
		return params.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return params.Parameters{}, errors.Wrapf(err, "failed to read parameter preset %s", path)
	}
	p, err := DecodeParams(data)
	if err != nil {
		return params.Parameters{}, errors.Wrapf(err, "invalid parameter preset %s", path)
	}
	return p, nil
}

// DecodeParams decodes a YAML (or JSON, which is valid YAML) preset onto the
// defaults and validates the result.
func DecodeParams(data []byte) (params.Parameters, error) {
	p := params.Default()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return params.Parameters{}, errors.WithCode(errors.CodeConfigInvalid, err)
		}
	}
	if err := p.Validate(); err != nil {
		return params.Parameters{}, err
	}
	return p, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
