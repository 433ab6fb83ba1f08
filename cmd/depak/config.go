package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the depak configuration file (~/.config/depak/config.yaml).
// Every field is optional; explicit CLI flags always win.
type Config struct {
	OutputDir     string `yaml:"output_dir"`
	NameEncoding  string `yaml:"name_encoding"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "depak", "config.yaml")
}

// loadConfig reads the config file if present. A missing file is not an
// error; a malformed one is.
func loadConfig() (Config, error) {
	var cfg Config
	path := configPath()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyConfig fills flag-backed settings from the config file when the
// corresponding flag was not explicitly set.
func applyConfig(c *cli.Command, cfg Config, outDir *string, addr *string) {
	if cfg.OutputDir != "" && outDir != nil && !c.IsSet("out") {
		*outDir = cfg.OutputDir
	}
	if cfg.NameEncoding != "" && !c.IsSet("name-encoding") {
		nameEncoding = cfg.NameEncoding
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.ServerAddress != "" && addr != nil && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
