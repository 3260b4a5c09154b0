// =============================================================================
// Tariff Reconciler - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles both the main application configuration and the per-mode
// reconciliation profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Mode Profiles (profiles/*.yaml): Column matching, compared fields,
//      service families and remark texts for each reconciliation mode
//
// Environment overrides (RECON_*) and command-line flags are layered on top
// of the main config by the cmd package through viper.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultChunkSize is the default reader window size (5 MiB).
const DefaultChunkSize = 5 * 1024 * 1024

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// OutputDir is the directory where reports and templates are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`

	// ArchiveDir receives copies of input files after a successful run when
	// ArchiveInputs is enabled.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir" mapstructure:"archive_dir"`

	// ProfilesDir contains the mode profiles. Modes without a profile file
	// use the built-in profile.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir" mapstructure:"profiles_dir"`

	// ArchiveInputs copies the input files into ArchiveDir after each run.
	ArchiveInputs bool `yaml:"archive_inputs" mapstructure:"archive_inputs"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// LogFormat selects "console", "json" or "auto" (console on a terminal).
	// Default: "auto"
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// ChunkSize is the byte size of each reader window.
	// Default: 5 MiB
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`

	// ReportNameFormat defines the report file name (without extension).
	// Placeholders:
	//   {mode}      - Mode label (TARIF, BIAYA)
	//   {filter}    - Report filter (Full, MATCH, MISMATCH, BLANK)
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {uuid}      - A random UUID
	// Default: "Laporan_Validasi_{mode}_{filter}"
	ReportNameFormat string `yaml:"report_name_format" mapstructure:"report_name_format"`

	// =========================================================================
	// HISTORY AND SERVER SETTINGS
	// =========================================================================

	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
}

// HistoryConfig selects and configures the history store.
type HistoryConfig struct {
	// Backend is one of "memory", "file", "sqlite", "redis".
	// Default: "file"
	Backend string `yaml:"backend" mapstructure:"backend"`

	// Path is the JSON file (file backend) or database file (sqlite backend).
	// Default: "./data/history.json" or "./data/history.db"
	Path string `yaml:"path" mapstructure:"path"`

	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`

	// RedisKey is the list key holding serialized entries.
	// Default: "recon:history"
	RedisKey string `yaml:"redis_key" mapstructure:"redis_key"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	// Default: ":8080"
	Addr string `yaml:"addr" mapstructure:"addr"`

	// MaxUploadMB limits multipart upload size.
	// Default: 512
	MaxUploadMB int64 `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// History backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file is
//     not an error; defaults are used instead.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults applied.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ApplyMainConfigDefaults(&config)

	if err := ValidateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a MainConfig populated with default values.
func Default() *MainConfig {
	var config MainConfig
	ApplyMainConfigDefaults(&config)
	return &config
}

// ApplyMainConfigDefaults sets default values for any unset configuration options.
func ApplyMainConfigDefaults(config *MainConfig) {
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.ProfilesDir == "" {
		config.ProfilesDir = "./profiles"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogFormat == "" {
		config.LogFormat = "auto"
	}
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultChunkSize
	}
	if config.ReportNameFormat == "" {
		config.ReportNameFormat = "Laporan_Validasi_{mode}_{filter}"
	}

	if config.History.Backend == "" {
		config.History.Backend = BackendFile
	}
	config.History.Backend = strings.ToLower(config.History.Backend)
	if config.History.Path == "" {
		switch config.History.Backend {
		case BackendSQLite:
			config.History.Path = "./data/history.db"
		default:
			config.History.Path = "./data/history.json"
		}
	}
	if config.History.RedisAddr == "" {
		config.History.RedisAddr = "localhost:6379"
	}
	if config.History.RedisKey == "" {
		config.History.RedisKey = "recon:history"
	}

	if config.Server.Addr == "" {
		config.Server.Addr = ":8080"
	}
	if config.Server.MaxUploadMB <= 0 {
		config.Server.MaxUploadMB = 512
	}
}

// ValidateMainConfig validates the main configuration.
func ValidateMainConfig(config *MainConfig) error {
	switch config.History.Backend {
	case BackendMemory, BackendFile, BackendSQLite, BackendRedis:
	default:
		return fmt.Errorf("unknown history backend %q", config.History.Backend)
	}

	switch strings.ToLower(config.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", config.LogLevel)
	}

	if config.ChunkSize < 1024 {
		return fmt.Errorf("chunk_size must be at least 1024 bytes, got %d", config.ChunkSize)
	}

	return nil
}
