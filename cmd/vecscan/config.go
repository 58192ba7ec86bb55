package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecscan"
	"github.com/hupe1980/vecscan/persistence"
	"github.com/hupe1980/vecscan/resource"
)

// Config is the CLI configuration. It is read from a YAML file and then
// overridden by command-line flags.
//
// Values of the form ${NAME} are expanded from the environment before the
// file is parsed, so credentials need not be stored in it.
type Config struct {
	// Dimension of the vectors. 0 infers it from the first imported row.
	Dimension int `yaml:"dimension"`

	// Compression of the table blob: none, lz4 or zstd.
	Compression string `yaml:"compression"`

	// Workers bounds scan parallelism. 0 uses GOMAXPROCS.
	Workers int `yaml:"workers"`

	// Cache enables the query result cache. Defaults to true.
	Cache *bool `yaml:"cache"`

	// MemoryLimit caps owned rows and cached results, e.g. "512MB".
	MemoryLimit string `yaml:"memory_limit"`

	// IOLimit caps blob throughput per second, e.g. "50MB".
	IOLimit string `yaml:"io_limit"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text or json

	Store StoreConfig `yaml:"store"`
}

// StoreConfig selects and configures the blob store backend.
type StoreConfig struct {
	// Backend is one of local, memory, s3, minio, badger or sqlite.
	Backend string `yaml:"backend"`

	// Path is the directory (local, badger) or database file (sqlite).
	Path string `yaml:"path"`

	// Prefix namespaces the blobs of one map inside the store.
	Prefix string `yaml:"prefix"`

	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`

	// Endpoint is required for minio. For s3 it selects a compatible
	// service and enables path-style addressing.
	Endpoint string `yaml:"endpoint"`

	// Static credentials for minio. The s3 backend uses the default AWS
	// credential chain.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() Config {
	return Config{
		Compression: "none",
		LogLevel:    "warn",
		LogFormat:   "text",
		Store: StoreConfig{
			Backend: "local",
			Path:    "./vecscan-data",
		},
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(os.ExpandEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that can be checked without opening the store.
func (c Config) Validate() error {
	if c.Dimension < 0 {
		return fmt.Errorf("dimension must not be negative, got %d", c.Dimension)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if _, err := persistence.ParseCompression(c.Compression); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if _, err := ParseSize(c.MemoryLimit); err != nil {
		return fmt.Errorf("memory_limit: %w", err)
	}
	if _, err := ParseSize(c.IOLimit); err != nil {
		return fmt.Errorf("io_limit: %w", err)
	}
	switch c.Store.Backend {
	case "local", "badger", "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store backend %s requires a path", c.Store.Backend)
		}
	case "s3", "minio":
		if c.Store.Bucket == "" {
			return fmt.Errorf("store backend %s requires a bucket", c.Store.Backend)
		}
		if c.Store.Backend == "minio" && c.Store.Endpoint == "" {
			return errors.New("store backend minio requires an endpoint")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// Options converts the configuration into map options.
func (c Config) Options() ([]vecscan.Option, error) {
	compression, err := persistence.ParseCompression(c.Compression)
	if err != nil {
		return nil, err
	}
	memLimit, err := ParseSize(c.MemoryLimit)
	if err != nil {
		return nil, err
	}
	ioLimit, err := ParseSize(c.IOLimit)
	if err != nil {
		return nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	opts := []vecscan.Option{
		vecscan.WithCompression(compression),
		vecscan.WithWorkers(c.Workers),
		vecscan.WithLogger(logger),
		vecscan.WithResourceController(resource.NewController(resource.Config{
			MemoryLimitBytes:   memLimit,
			IOLimitBytesPerSec: ioLimit,
		})),
	}
	if c.Cache != nil {
		opts = append(opts, vecscan.WithCache(*c.Cache))
	}
	return opts, nil
}

// Logger builds the logger selected by LogLevel and LogFormat.
func (c Config) Logger() (*vecscan.Logger, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.LogFormat, "json") {
		return vecscan.NewJSONLogger(level), nil
	}
	return vecscan.NewTextLogger(level), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// ParseSize parses a human-readable byte size such as "1024", "64KB",
// "512MB" or "2GB". Empty, "0" and "unlimited" yield 0.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" || s == "0" || s == "UNLIMITED" {
		return 0, nil
	}

	s = strings.TrimSuffix(s, "B")

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1 << 10
	case strings.HasSuffix(s, "M"):
		multiplier = 1 << 20
	case strings.HasSuffix(s, "G"):
		multiplier = 1 << 30
	case strings.HasSuffix(s, "T"):
		multiplier = 1 << 40
	}
	if multiplier > 1 {
		s = s[:len(s)-1]
	}

	val, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return val * multiplier, nil
}
