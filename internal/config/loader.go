package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".repoharvest"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for repoharvest settings.
const envPrefix = "REPOHARVEST"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
// Overrides run after unmarshalling and before validation, so command-line
// flags can layer on top of file and environment settings.
func LoadConfig(configPath string, overrides ...func(*Config)) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	for _, override := range overrides {
		override(&cfg)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("export_dir", DefaultExportDir)
	viperCfg.SetDefault("workspace_dir", DefaultWorkspaceDir)
	viperCfg.SetDefault("incremental", true)
	viperCfg.SetDefault("stats", true)

	viperCfg.SetDefault("batch.size", DefaultBatchSize)
	viperCfg.SetDefault("batch.max_versions", DefaultMaxVersions)

	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.sample_ratio", 0.0)
}
