// Package config provides configuration management for the
// mem-analysis tools.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mem-analysis/pkg/compression"
)

// Config holds all configuration for the application.
type Config struct {
	Measure  MeasureConfig  `mapstructure:"measure"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Log      LogConfig      `mapstructure:"log"`
}

// MeasureConfig holds measurement configuration.
type MeasureConfig struct {
	// Workers bounds the batch measurement pool.
	Workers int `mapstructure:"workers"`
	// TopNodes is how many heavy blocks a report singles out.
	TopNodes int `mapstructure:"top_nodes"`
	// MaxInputBytes caps the size of one input document.
	MaxInputBytes int64 `mapstructure:"max_input_bytes"`
	// CountFunctions counts function values as blocks.
	CountFunctions bool `mapstructure:"count_functions"`
	// DataDir is where report files are written.
	DataDir string `mapstructure:"data_dir"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"` // sqlite, mysql, postgres or clickhouse
	Path     string `mapstructure:"path"` // sqlite file
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds report storage configuration.
type StorageConfig struct {
	Type        string `mapstructure:"type"` // cos or local
	Bucket      string `mapstructure:"bucket"`
	Region      string `mapstructure:"region"`
	SecretID    string `mapstructure:"secret_id"`
	SecretKey   string `mapstructure:"secret_key"`
	Domain      string `mapstructure:"domain"` // e.g., "myqcloud.com"
	Scheme      string `mapstructure:"scheme"` // "https" or "http"
	LocalPath   string `mapstructure:"local_path"`
	Compression string `mapstructure:"compression"` // gzip, zstd or none
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"` // empty logs to stdout
}

// Load reads configuration from the given file, or from the standard
// locations when path is empty. Missing files fall back to defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mem-analysis")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes, mainly for tests.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("measure.workers", 4)
	v.SetDefault("measure.top_nodes", 10)
	v.SetDefault("measure.max_input_bytes", int64(256<<20))
	v.SetDefault("measure.count_functions", false)
	v.SetDefault("measure.data_dir", "./data")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.path", "./data/mem-analysis.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")
	v.SetDefault("storage.compression", "gzip")

	v.SetDefault("log.level", "info")
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("sqlite database path is required")
		}
	case "mysql", "postgres", "clickhouse":
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Measure.Workers < 1 {
		return fmt.Errorf("measure workers must be at least 1")
	}
	if c.Measure.TopNodes < 0 {
		return fmt.Errorf("measure top_nodes cannot be negative")
	}
	if c.Measure.MaxInputBytes < 0 {
		return fmt.Errorf("measure max_input_bytes cannot be negative")
	}

	if _, err := compression.ParseType(c.Storage.Compression); err != nil {
		return fmt.Errorf("invalid storage compression: %w", err)
	}

	return nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	if c.Measure.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Measure.DataDir, 0755)
}

// ReportPath returns the local path for a report file named by UUID.
func (c *Config) ReportPath(reportUUID string) string {
	name := reportUUID + ".json" + compression.Ext(c.StorageCompression())
	return filepath.Join(c.Measure.DataDir, name)
}

// StorageCompression returns the configured codec, gzip when unset or
// unparseable.
func (c *Config) StorageCompression() compression.Type {
	t, err := compression.ParseType(c.Storage.Compression)
	if err != nil {
		return compression.TypeGzip
	}
	return t
}
