// Package config handles configuration loading and validation for the folio
// commands.
package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Editor configures the editing engine.
	Editor EditorConfig `toml:"editor" json:"editor" yaml:"editor"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// Storage configures the operation log.
	Storage StorageConfig `toml:"storage" json:"storage" yaml:"storage"`

	// Keymap binds key chords such as "ctrl+b" to command names.
	Keymap map[string]string `toml:"keymap" json:"keymap" yaml:"keymap"`
}

// EditorConfig configures the editing engine.
type EditorConfig struct {
	// ZenCoding enables shorthand substitution.
	ZenCoding bool `toml:"zen_coding" json:"zen_coding" yaml:"zen_coding"`

	// ReadOnly refuses every editing command.
	ReadOnly bool `toml:"read_only" json:"read_only" yaml:"read_only"`

	// HistoryStackSize caps the undo stack.
	HistoryStackSize int `toml:"history_stack_size" json:"history_stack_size" yaml:"history_stack_size"`

	// Platform selects key normalization: "linux", "mac" or "windows".
	Platform string `toml:"platform" json:"platform" yaml:"platform"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `toml:"level" json:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format" yaml:"format"`

	// Output is "stdout", "stderr", "file" or "discard".
	Output string `toml:"output" json:"output" yaml:"output"`

	// FilePath is the log file used when Output is "file".
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// StorageConfig configures the operation log.
type StorageConfig struct {
	// Type is "memory", "fs" or "sqlite".
	Type string `toml:"type" json:"type" yaml:"type"`

	// Path is the directory (fs) or database file (sqlite).
	Path string `toml:"path" json:"path" yaml:"path"`

	// DocID names the document inside the log.
	DocID string `toml:"doc_id" json:"doc_id" yaml:"doc_id"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dir := DataDir()
	return &Config{
		Version: Version,
		Editor: EditorConfig{
			ZenCoding:        true,
			HistoryStackSize: 500,
			Platform:         DefaultPlatform(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Storage: StorageConfig{
			Type:  "sqlite",
			Path:  filepath.Join(dir, "oplog.db"),
			DocID: "default",
		},
		Keymap: map[string]string{},
	}
}

// DefaultPlatform returns the platform name for the running OS.
func DefaultPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "mac"
	case "windows":
		return "windows"
	}
	return "linux"
}

// DataDir returns the folio data directory. FOLIO_DATA_DIR overrides it.
func DataDir() string {
	if dir := os.Getenv("FOLIO_DATA_DIR"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "folio")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".folio")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads configuration from path. A missing file yields the defaults.
// The format follows the extension: .toml, .json, .yaml or .yml.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// loadConfigFromFile reads and parses a config file based on its extension.
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("decode YAML: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("decode TOML: %w", err)
		}
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in the format given by its extension.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch filepath.Ext(path) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	}
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies FOLIO_* environment variables.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("FOLIO_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("FOLIO_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("FOLIO_STORAGE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("FOLIO_PLATFORM"); v != "" {
		c.Editor.Platform = v
	}
	if v := os.Getenv("FOLIO_READ_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Editor.ReadOnly = b
		}
	}
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Keymap = maps.Clone(c.Keymap)
	return &clone
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}
