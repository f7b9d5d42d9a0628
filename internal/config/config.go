// Package config loads the account daemon's settings.
//
// Values come from three layers, later layers winning: built-in defaults,
// an optional YAML file, then environment variables.
//
// YAML example:
//
//	server:
//	  port: 8080
//	storage:
//	  type: disk
//	  dir: lib/acctfiles
//	cleanup:
//	  interval: 1h
//	  rules:
//	    - {level: 1, days: 4}
//	    - {level: 34, days: 90}
//	admin_token: change-me
//	log:
//	  level: INFO
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/mudaccounts/internal/model"
	redisstorage "github.com/mcoot/mudaccounts/internal/storage/redis"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeDisk   = "disk"
	StorageTypeRedis  = "redis"
)

// Config is the complete daemon configuration
type Config struct {
	Server     ServerConfig        `yaml:"server"`
	Storage    StorageConfig       `yaml:"storage"`
	Redis      redisstorage.Config `yaml:"redis"`
	Cleanup    CleanupConfig       `yaml:"cleanup"`
	Accounts   AccountsConfig      `yaml:"accounts"`
	AdminToken string              `yaml:"admin_token"`
	Log        LogConfig           `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the file backend
type StorageConfig struct {
	Type         string `yaml:"type"`
	Dir          string `yaml:"dir"`
	AtomicWrites bool   `yaml:"atomic_writes"`
}

// CleanupConfig controls the periodic sweep. A zero interval disables it.
type CleanupConfig struct {
	Interval time.Duration         `yaml:"interval"`
	Rules    []model.RetentionRule `yaml:"rules"`
}

// AccountsConfig tunes registration and password hashing
type AccountsConfig struct {
	BcryptCost        int `yaml:"bcrypt_cost"`
	MinPasswordLength int `yaml:"min_password_length"`
	MaxNameLength     int `yaml:"max_name_length"`
	MaxEmailLength    int `yaml:"max_email_length"`
}

// LogConfig configures the application logger
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Type: StorageTypeDisk,
			Dir:  "lib/acctfiles",
		},
		Redis: redisstorage.DefaultConfig(),
		Cleanup: CleanupConfig{
			Interval: time.Hour,
			Rules:    model.DefaultRetentionRules(),
		},
		Accounts: AccountsConfig{
			BcryptCost:        10,
			MinPasswordLength: 4,
			MaxNameLength:     20,
			MaxEmailLength:    100,
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Server.Host = getEnvOrDefault("ACCTD_HOST", c.Server.Host)
	c.Storage.Type = getEnvOrDefault("STORAGE_TYPE", c.Storage.Type)
	c.Storage.Dir = getEnvOrDefault("ACCTD_STORAGE_DIR", c.Storage.Dir)
	c.Redis.URL = getEnvOrDefault("REDIS_URL", c.Redis.URL)
	c.AdminToken = getEnvOrDefault("ACCTD_ADMIN_TOKEN", c.AdminToken)
	c.Log.Level = getEnvOrDefault("ACCTD_LOG_LEVEL", c.Log.Level)

	if v := os.Getenv("ACCTD_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ACCTD_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ACCTD_CLEANUP_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ACCTD_CLEANUP_INTERVAL: %w", err)
		}
		c.Cleanup.Interval = interval
	}
	return nil
}

// Validate checks the configuration for values the daemon cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Type {
	case StorageTypeMemory, StorageTypeRedis:
	case StorageTypeDisk:
		if c.Storage.Dir == "" {
			errs = append(errs, errors.New("storage.dir is required for disk storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type %q must be memory, disk or redis", c.Storage.Type))
	}

	if c.Storage.Type == StorageTypeRedis && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis.url is required for redis storage"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Cleanup.Interval < 0 {
		errs = append(errs, errors.New("cleanup.interval cannot be negative"))
	}
	for i, rule := range c.Cleanup.Rules {
		if rule.Days < 0 {
			errs = append(errs, fmt.Errorf("cleanup.rules[%d]: days cannot be negative", i))
		}
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogLevel parses the configured log level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.Log.Level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
