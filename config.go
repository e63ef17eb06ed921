package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	SaveDirectory string       `toml:"save_directory"`
	StartMenu     bool         `toml:"start_menu"`
	Confirmations bool         `toml:"confirmations"`
	LogFile       string       `toml:"log_file"`
	Export        ExportConfig `toml:"export"`
}

type ExportConfig struct {
	Scale   float64 `toml:"scale"`
	Padding float64 `toml:"padding"`
}

func defaultConfig() *Config {
	return &Config{
		StartMenu:     true,
		Confirmations: true,
		Export: ExportConfig{
			Scale:   exportScale,
			Padding: exportPadding,
		},
	}
}

func configPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "conmap", "config.toml")
}

// loadConfig never fails: a missing or broken file yields the defaults.
func loadConfig() *Config {
	path := configPath()
	if path == "" {
		return defaultConfig()
	}
	config, err := loadConfigFrom(path)
	if err != nil {
		return defaultConfig()
	}
	return config
}

func loadConfigFrom(path string) (*Config, error) {
	config := defaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if config.SaveDirectory != "" {
		config.SaveDirectory = expandPath(config.SaveDirectory)
	}
	if config.LogFile != "" {
		config.LogFile = expandPath(config.LogFile)
	}
	if config.Export.Scale <= 0 {
		config.Export.Scale = exportScale
	}
	if config.Export.Padding < 0 {
		config.Export.Padding = exportPadding
	}
	return config, nil
}

func expandPath(value string) string {
	if strings.HasPrefix(value, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			value = filepath.Join(home, strings.TrimPrefix(value, "~"))
		}
	}
	if !filepath.IsAbs(value) {
		if abs, err := filepath.Abs(value); err == nil {
			value = abs
		}
	}
	return value
}

func (c *Config) GetSavePath(filename string) string {
	if c.SaveDirectory == "" || filepath.IsAbs(filename) {
		return filename
	}
	os.MkdirAll(c.SaveDirectory, 0755)
	return filepath.Join(c.SaveDirectory, filename)
}
