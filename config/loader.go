// Package config loads the module's configuration from a YAML file with
// environment overrides. A .env file, when present, is loaded first.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ksimsek/apikit/apiclient"
	"github.com/ksimsek/apikit/logger"
)

const defaultEnvPrefix = "APIKIT"

// LoaderConfig controls where configuration is read from.
type LoaderConfig struct {
	// ConfigFile is an explicit config file path. When empty, config.yml
	// is searched in . and ./config.
	ConfigFile string
	// EnvFile is an explicit .env path. When empty, ./.env is loaded on a
	// best-effort basis.
	EnvFile string
	// EnvPrefix for environment overrides. Defaults to APIKIT, so
	// api.success_code becomes APIKIT_API_SUCCESS_CODE.
	EnvPrefix string
}

// File is the top-level configuration file schema.
type File struct {
	API apiclient.Config `yaml:"api" mapstructure:"api"`
	Log logger.Config    `yaml:"log" mapstructure:"log"`
}

// Load reads the configuration file, applies env overrides, and
// unmarshals the result.
func Load(opts LoaderConfig) (*File, error) {
	if opts.EnvPrefix == "" {
		opts.EnvPrefix = defaultEnvPrefix
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	} else {
		// Missing .env is not an error.
		_ = godotenv.Load()
	}

	v := viper.New()
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(opts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.success_code", apiclient.DefaultSuccessCode)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &f, nil
}
