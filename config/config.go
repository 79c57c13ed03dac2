package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Metadata MetadataConfig `yaml:"metadata"`
	Cache    CacheConfig    `yaml:"cache"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	DBType           string `yaml:"type"`
	ConnectionString string `yaml:"connection_string,omitempty"`
	File             string `yaml:"file,omitempty"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	BasePath string `yaml:"base_path"`
}

// MetadataConfig names the tables holding Form, Component and Field records.
type MetadataConfig struct {
	TablePrefix string `yaml:"table_prefix"`
}

type CacheConfig struct {
	AllowlistTTL time.Duration `yaml:"allowlist_ttl"`
	MaxEntries   int64         `yaml:"max_entries"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{DBType: "sqlite", File: "database.db"},
		Server:   ServerConfig{Addr: ":5000", BasePath: "/config"},
		Metadata: MetadataConfig{TablePrefix: "NW_"},
		Cache:    CacheConfig{AllowlistTTL: time.Minute, MaxEntries: 1024},
		Log:      LogConfig{Level: "info"},
	}
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML on top of Default, so omitted sections keep their defaults.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Cache.MaxEntries <= 0 {
		config.Cache.MaxEntries = 1024
	}
	config.Server.BasePath = strings.TrimRight(config.Server.BasePath, "/")

	return config, nil
}

func (d *DatabaseConfig) GetConnectionString() (string, error) {
	switch d.DBType {
	case "postgres", "mysql":
		if d.ConnectionString == "" {
			return "", fmt.Errorf("connection string is required for %s connection", d.DBType)
		}

		return d.ConnectionString, nil

	case "sqlite":
		if d.File == "" {
			d.File = "database.db"
		}
		return d.File, nil

	default:
		return "", fmt.Errorf("unsupported database type: %s", d.DBType)
	}
}

func (m MetadataConfig) FormsTable() string      { return m.TablePrefix + "forms" }
func (m MetadataConfig) ComponentsTable() string { return m.TablePrefix + "form_components" }
func (m MetadataConfig) FieldsTable() string     { return m.TablePrefix + "form_fields" }

func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
