package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the ktxload configuration file (~/.config/ktxload/config.yaml).
type Config struct {
	// Capabilities lists GPU format families, e.g. [astc, dxt].
	Capabilities []string `yaml:"capabilities"`

	// Engine
	Engine     string   `yaml:"engine"`
	EnginePath string   `yaml:"engine_path"`
	EngineArgs []string `yaml:"engine_args"`
	Workers    *int64   `yaml:"workers"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ktxload", "config.yaml")
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyCapabilityConfig(c *cli.Command, cfg Config) {
	if len(cfg.Capabilities) > 0 && !c.IsSet("caps") {
		capabilities = strings.Join(cfg.Capabilities, ",")
	}
}

// applyEngineConfig applies config file defaults to the engine flags when
// the corresponding CLI flag was not explicitly set.
func applyEngineConfig(c *cli.Command, cfg Config) {
	applyCapabilityConfig(c, cfg)
	if cfg.Engine != "" && !c.IsSet("engine") {
		engineName = cfg.Engine
	}
	if cfg.EnginePath != "" && !c.IsSet("engine-path") {
		enginePath = cfg.EnginePath
	}
	if len(cfg.EngineArgs) > 0 && !c.IsSet("engine-args") {
		engineArgs = cfg.EngineArgs
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyEngineConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	return loadConfigFile(configPath())
}

func loadConfigFile(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
