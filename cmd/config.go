package cmd

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/tariff-reconciler/internal/config"
	"github.com/ginjaninja78/tariff-reconciler/pkg/utils"
)

// envPrefix prefixes every configuration environment variable,
// e.g. RECON_HISTORY_BACKEND for history.backend.
const envPrefix = "RECON"

// configKeys lists every main configuration key. Keys must be known to viper
// for environment variables to reach Unmarshal.
var configKeys = []string{
	"output_dir",
	"archive_dir",
	"profiles_dir",
	"archive_inputs",
	"log_level",
	"log_format",
	"chunk_size",
	"report_name_format",
	"history.backend",
	"history.path",
	"history.redis_addr",
	"history.redis_password",
	"history.redis_db",
	"history.redis_key",
	"server.addr",
	"server.max_upload_mb",
}

// flagKeys maps command-line flags to configuration keys. Flags that are
// not defined on the running command are ignored.
var flagKeys = map[string]string{
	"log-level":  "log_level",
	"log-format": "log_format",
	"output-dir": "output_dir",
	"chunk-size": "chunk_size",
	"addr":       "server.addr",
	"history":    "history.backend",
}

// loadConfig builds the main configuration. Sources in order of precedence:
//  1. Command-line flags
//  2. RECON_* environment variables (including .env files)
//  3. The config file. A missing default config.yaml is skipped; any other
//     missing file is an error.
//  4. Defaults
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}

	if cfgFile != "" && !utils.FileExists(cfgFile) && cfgFile != defaultConfigFile {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}
	if cfgFile != "" && utils.FileExists(cfgFile) {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg config.MainConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	config.ApplyMainConfigDefaults(&cfg)
	if err := config.ValidateMainConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// loadEnvFiles loads variables from .env files. Variables already present in
// the environment win; .env.local overrides .env.
func loadEnvFiles() {
	files := []string{".env.local", ".env"}
	if envFile != "" {
		files = append([]string{envFile}, files...)
	}
	for _, f := range files {
		if utils.FileExists(f) {
			_ = godotenv.Load(f)
		}
	}
}
