// Package config loads process configuration from an optional YAML file, an
// optional .env file and SOLAROPS_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kuhu42/solar-back-sub001/internal/blob"
	"github.com/kuhu42/solar-back-sub001/internal/core"
)

// EnvPrefix prefixes every environment override, e.g. SOLAROPS_HTTP_ADDR.
const EnvPrefix = "SOLAROPS"

// Config is the full process configuration.
type Config struct {
	Storage  StorageConfig `mapstructure:"storage"`
	Blob     BlobConfig    `mapstructure:"blob"`
	Redis    RedisConfig   `mapstructure:"redis"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Log      LogConfig     `mapstructure:"log"`
	Timezone string        `mapstructure:"timezone"`
	Latency  LatencyConfig `mapstructure:"latency"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type BlobConfig struct {
	Driver string       `mapstructure:"driver"`
	FSRoot string       `mapstructure:"fs_root"`
	S3     BlobS3Config `mapstructure:"s3"`
}

type BlobS3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Channel string `mapstructure:"channel"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type LatencyConfig struct {
	CheckIn   time.Duration `mapstructure:"check_in"`
	QuoteSend time.Duration `mapstructure:"quote_send"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// ConfigFile is an optional YAML file. Missing files are an error only
	// when set explicitly.
	ConfigFile string
	// EnvFile is loaded with godotenv before reading the environment;
	// defaults to ".env" and is skipped when absent.
	EnvFile string
	// Overrides take precedence over every other source, e.g. CLI flags.
	Overrides map[string]any
}

var defaults = map[string]any{
	"storage.driver":            string(core.StorageSQLite),
	"storage.sqlite_path":       "solarops.db",
	"storage.postgres_dsn":      "",
	"blob.driver":               string(blob.DriverFilesystem),
	"blob.fs_root":              "./blobdata",
	"blob.s3.region":            "us-east-1",
	"blob.s3.bucket":            "",
	"blob.s3.endpoint":          "",
	"blob.s3.access_key_id":     "",
	"blob.s3.secret_access_key": "",
	"blob.s3.path_style":        false,
	"redis.url":                 "",
	"redis.channel":             "solarops:changes",
	"http.addr":                 ":8080",
	"http.cors_origins":         []string{"*"},
	"log.level":                 "info",
	"log.format":                "text",
	"timezone":                  "UTC",
	"latency.check_in":          2 * time.Second,
	"latency.quote_send":        3 * time.Second,
}

// Load resolves configuration and validates it.
func Load(opts Options) (Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated values and dependent settings.
func (c Config) Validate() error {
	var errs []error
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not one of memory, sqlite, postgres", c.Storage.Driver))
	}
	switch blob.Driver(c.Blob.Driver) {
	case blob.DriverMemory, blob.DriverFilesystem:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q is not one of fs, s3, memory", c.Blob.Driver))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}
	if c.Latency.CheckIn < 0 || c.Latency.QuoteSend < 0 {
		errs = append(errs, errors.New("latency values must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Location resolves the attendance time zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LogLevel parses log.level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}

// StorageOptions converts the storage section for core.OpenPersistentStore.
func (c Config) StorageOptions() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}

// BlobOptions converts the blob section for blob.Open.
func (c Config) BlobOptions() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.Blob.Driver),
		FSRoot: c.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          c.Blob.S3.Region,
			Bucket:          c.Blob.S3.Bucket,
			Endpoint:        c.Blob.S3.Endpoint,
			AccessKeyID:     c.Blob.S3.AccessKeyID,
			SecretAccessKey: c.Blob.S3.SecretAccessKey,
			PathStyle:       c.Blob.S3.PathStyle,
		},
	}
}

// Latencies converts the latency section for core.NewDispatcher.
func (c Config) Latencies() core.Latency {
	return core.Latency{CheckIn: c.Latency.CheckIn, QuoteSend: c.Latency.QuoteSend}
}

// NewLogger builds the process logger from the log section.
func (c Config) NewLogger() *slog.Logger {
	level, err := c.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
