package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all engine settings.
const envPrefix = "ZIPREPORT"

// newViper builds a pre-configured viper instance: YAML file type, ZIPREPORT_
// env prefix, automatic env binding, and a "." → "_" key replacer so that
// "chunk_size" resolves to ZIPREPORT_CHUNK_SIZE.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Every key needs a registered default for AutomaticEnv to surface it
	// through Unmarshal.
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("active_only", true)
	v.SetDefault("output_dir", DefaultOutputDir)
	v.SetDefault("port", DefaultPort)
	return v
}

// Load reads the YAML file at configPath, merges ZIPREPORT_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (Settings, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return Settings{}, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return finalize(v)
}

// LoadFromEnv builds Settings entirely from ZIPREPORT_* environment variables,
// with no config file required.
func LoadFromEnv() (Settings, error) {
	return finalize(newViper())
}

func finalize(v *viper.Viper) (Settings, error) {
	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	s.ApplyDefaults()

	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config: validation failed: %w", err)
	}
	return s, nil
}
