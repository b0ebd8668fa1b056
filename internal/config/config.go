package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Bridge   BridgeConfig   `yaml:"bridge"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Print    PrintConfig    `yaml:"print"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// BridgeConfig covers the client-facing socket listener.
type BridgeConfig struct {
	Port          int           `yaml:"port"`
	RetryRandom   bool          `yaml:"retry_random_port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	MaxFrameBytes int           `yaml:"max_frame_bytes"`
	SaveDebugCopy bool          `yaml:"save_debug_copy"`
	SaveOutputDir string        `yaml:"save_output_dir"`
}

type AdminConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PrintConfig struct {
	SubmitTimeout     time.Duration `yaml:"submit_timeout"`
	RawPrinterPort    int           `yaml:"raw_printer_port"`
	FallbackToDefault bool          `yaml:"fallback_to_default"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Bridge: BridgeConfig{
			Port:        8765,
			RetryRandom: true,
			// Clients idle between print bursts; no read deadline by
			// default.
			ReadTimeout:   0,
			WriteTimeout:  30 * time.Second,
			MaxFrameBytes: 32 << 20,
			SaveOutputDir: "./data/saved",
		},
		Admin: AdminConfig{
			Enabled: true,
			Port:    8766,
		},
		Database: DatabaseConfig{
			Path: "./data/printbridge.db",
		},
		Print: PrintConfig{
			SubmitTimeout:     60 * time.Second,
			RawPrinterPort:    9100,
			FallbackToDefault: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()

	if v := os.Getenv("BRIDGE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Bridge.Port = port
		}
	}

	if v := os.Getenv("BRIDGE_ADMIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Admin.Port = port
		}
	}

	if v := os.Getenv("BRIDGE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("BRIDGE_SAVE_DIR"); v != "" {
		cfg.Bridge.SaveOutputDir = v
	}

	if v := os.Getenv("BRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Bridge.Port < 1 || c.Bridge.Port > 65535 {
		return fmt.Errorf("bridge port must be between 1 and 65535, got %d", c.Bridge.Port)
	}

	if c.Admin.Enabled && (c.Admin.Port < 1 || c.Admin.Port > 65535) {
		return fmt.Errorf("admin port must be between 1 and 65535, got %d", c.Admin.Port)
	}

	if c.Admin.Enabled && c.Bridge.Port == c.Admin.Port {
		return fmt.Errorf("bridge and admin ports must differ, both are %d", c.Bridge.Port)
	}

	if c.Bridge.ReadTimeout < 0 {
		return fmt.Errorf("bridge read timeout must be non-negative")
	}

	if c.Bridge.WriteTimeout < 0 {
		return fmt.Errorf("bridge write timeout must be non-negative")
	}

	if c.Bridge.MaxFrameBytes < 1024 {
		return fmt.Errorf("max frame bytes must be at least 1024, got %d", c.Bridge.MaxFrameBytes)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Print.SubmitTimeout < 0 {
		return fmt.Errorf("submit timeout must be non-negative")
	}

	if c.Print.RawPrinterPort < 1 || c.Print.RawPrinterPort > 65535 {
		return fmt.Errorf("raw printer port must be between 1 and 65535, got %d", c.Print.RawPrinterPort)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}
