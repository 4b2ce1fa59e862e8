package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/rfidenter/uhfbridge/pkg/core"
)

// ReaderConfig holds connection defaults and driver timing.
type ReaderConfig struct {
	Label           string `toml:"label"`
	DefaultIP       string `toml:"defaultIp"`
	DefaultPort     int    `toml:"defaultPort"`
	TimeoutMS       int    `toml:"timeoutMs"`
	RoundIntervalMS int    `toml:"roundIntervalMs"`
}

// Timeout is the per-reply driver timeout.
func (c ReaderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// RoundInterval is the pause between inventory rounds.
func (c ReaderConfig) RoundInterval() time.Duration {
	return time.Duration(c.RoundIntervalMS) * time.Millisecond
}

// LoggingConfig defines basic logging knobs.
type LoggingConfig struct {
	Level       string `toml:"level"`
	FilePath    string `toml:"filePath"`
	FileMaxSize int    `toml:"fileMaxSizeMB"`
}

// JournalConfig defines the SQLite tag journal.
type JournalConfig struct {
	Enabled     bool   `toml:"enabled"`
	DBPath      string `toml:"dbPath"`
	JournalMode string `toml:"journalMode"`
	Synchronous string `toml:"synchronous"`
}

// MetricsConfig controls periodic counter dumps to the log.
type MetricsConfig struct {
	LogIntervalSec int `toml:"logIntervalSec"`
}

// BridgeConfig aggregates bridge configuration.
type BridgeConfig struct {
	Reader  ReaderConfig  `toml:"reader"`
	Logging LoggingConfig `toml:"logging"`
	Journal JournalConfig `toml:"journal"`
	Metrics MetricsConfig `toml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *BridgeConfig {
	cfg := &BridgeConfig{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a TOML config from path. Missing keys take default values.
func Load(path string) (*BridgeConfig, error) {
	var cfg BridgeConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Journal.DBPath = ResolvePath(filepath.Dir(path), cfg.Journal.DBPath)
	cfg.Logging.FilePath = ResolvePath(filepath.Dir(path), cfg.Logging.FilePath)
	return &cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg *BridgeConfig) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// ResolvePath makes a relative path relative to base.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func (cfg *BridgeConfig) applyDefaults() {
	if cfg.Reader.Label == "" {
		cfg.Reader.Label = core.DefaultLabel
	}
	if cfg.Reader.DefaultIP == "" {
		cfg.Reader.DefaultIP = core.DefaultIP
	}
	if cfg.Reader.DefaultPort == 0 {
		cfg.Reader.DefaultPort = core.DefaultPort
	}
	if cfg.Reader.TimeoutMS == 0 {
		cfg.Reader.TimeoutMS = 1000
	}
	if cfg.Reader.RoundIntervalMS == 0 {
		cfg.Reader.RoundIntervalMS = 20
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Journal.DBPath == "" {
		cfg.Journal.DBPath = "tags.db"
	}
	if cfg.Journal.JournalMode == "" {
		cfg.Journal.JournalMode = "WAL"
	}
	if cfg.Journal.Synchronous == "" {
		cfg.Journal.Synchronous = "NORMAL"
	}
}

func (cfg *BridgeConfig) validate() error {
	if cfg.Reader.DefaultPort < 1 || cfg.Reader.DefaultPort > 65535 {
		return fmt.Errorf("reader.defaultPort out of range: %d", cfg.Reader.DefaultPort)
	}
	if cfg.Reader.TimeoutMS < 0 || cfg.Reader.RoundIntervalMS < 0 {
		return fmt.Errorf("reader timings must not be negative")
	}
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not one of debug, info, warn, error", cfg.Logging.Level)
	}
	switch strings.ToUpper(cfg.Journal.JournalMode) {
	case "DELETE", "TRUNCATE", "PERSIST", "MEMORY", "WAL", "OFF":
	default:
		return fmt.Errorf("journal.journalMode %q not supported", cfg.Journal.JournalMode)
	}
	switch strings.ToUpper(cfg.Journal.Synchronous) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("journal.synchronous %q not supported", cfg.Journal.Synchronous)
	}
	if cfg.Metrics.LogIntervalSec < 0 {
		return fmt.Errorf("metrics.logIntervalSec must not be negative")
	}
	return nil
}
