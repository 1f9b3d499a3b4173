// Package config loads scenetest settings from an optional YAML file and
// SCENETEST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"scenetest/internal/scene"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "SCENETEST"
	DefaultName     = "scenetest"
	DefaultLogLevel = "info"
)

type Config struct {
	Run    RunConfig    `mapstructure:"run"`
	Log    LogConfig    `mapstructure:"log"`
	Output OutputConfig `mapstructure:"output"`
	Sftp   SftpConfig   `mapstructure:"sftp"`
}

type RunConfig struct {
	// Outer budget for a run in milliseconds. Zero uses the caller's deadline
	// or the default timeout.
	TimeoutMs   int64 `mapstructure:"timeout_ms"`
	Parallelism int   `mapstructure:"parallelism"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type OutputConfig struct {
	// JSON results archive, zstd compressed when ending with .zst
	Results string `mapstructure:"results"`
	// Prometheus textfile
	Metrics     string `mapstructure:"metrics"`
	AzureDevops bool   `mapstructure:"azure_devops"`
}

type SftpConfig struct {
	User           string        `mapstructure:"user"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryFor       time.Duration `mapstructure:"retry_for"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("run.timeout_ms", 0)
	v.SetDefault("run.parallelism", 1)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("output.results", "")
	v.SetDefault("output.metrics", "")
	v.SetDefault("output.azure_devops", false)
	v.SetDefault("sftp.user", "")
	v.SetDefault("sftp.private_key_path", "")
	v.SetDefault("sftp.timeout", 30*time.Second)
	v.SetDefault("sftp.retry_for", 0)
}

// Load reads the configuration. When path is empty, a scenetest.yaml in the
// working directory is used if present.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read configuration file: %w", err)
		}
	}

	config := Config{}
	if err := v.UnmarshalExact(&config); err != nil {
		return Config{}, fmt.Errorf("could not unmarshal configuration: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) Validate() error {
	if c.Run.TimeoutMs < 0 {
		return fmt.Errorf("run.timeout_ms must not be negative, got %d", c.Run.TimeoutMs)
	}
	if c.Run.Parallelism < 0 {
		return fmt.Errorf("run.parallelism must not be negative, got %d", c.Run.Parallelism)
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

func (c Config) LogLevel() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log.level: %w", err)
	}
	return level, nil
}

func (c Config) RemoteSettings() scene.RemoteSettings {
	return scene.RemoteSettings{
		User:           c.Sftp.User,
		PrivateKeyPath: c.Sftp.PrivateKeyPath,
		Timeout:        c.Sftp.Timeout,
		RetryFor:       c.Sftp.RetryFor,
	}
}
