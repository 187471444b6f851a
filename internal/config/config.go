// Package config loads runtime settings from defaults, an optional YAML file
// and IRON_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// IRON_LISTING_PAGE_SIZE.
const EnvPrefix = "IRON"

// MaxPresignTTL is the longest lifetime S3 accepts for a presigned URL.
const MaxPresignTTL = 7 * 24 * time.Hour

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
	Listing ListingConfig `mapstructure:"listing"`
	Search  SearchConfig  `mapstructure:"search"`
	Enrich  EnrichConfig  `mapstructure:"enrich"`
	Objects ObjectsConfig `mapstructure:"objects"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SessionConfig struct {
	Key string `mapstructure:"key"`
}

// StorageConfig holds the default connection. When AccessKey and SecretKey
// are set, requests without a session cookie use these credentials.
type StorageConfig struct {
	Driver    string  `mapstructure:"driver"`
	Endpoint  string  `mapstructure:"endpoint"`
	Region    string  `mapstructure:"region"`
	AccessKey string  `mapstructure:"access_key"`
	SecretKey string  `mapstructure:"secret_key"`
	RateLimit float64 `mapstructure:"rate_limit"`
}

type ListingConfig struct {
	PageSize       int    `mapstructure:"page_size"`
	MaxPageSize    int    `mapstructure:"max_page_size"`
	DefaultSort    string `mapstructure:"default_sort"`
	EnumerationCap int    `mapstructure:"enumeration_cap"`
	Delimiter      string `mapstructure:"delimiter"`
	Locale         string `mapstructure:"locale"`
}

type SearchConfig struct {
	ResultCap int `mapstructure:"result_cap"`
	ScanLimit int `mapstructure:"scan_limit"`
}

type EnrichConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

type ObjectsConfig struct {
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
	PreviewMaxBytes int64         `mapstructure:"preview_max_bytes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

var sortOrders = map[string]bool{
	"name-asc":  true,
	"name-desc": true,
	"date-asc":  true,
	"date-desc": true,
}

// SetDefaults registers every key with its default so environment overrides
// resolve even without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("session.key", "")
	v.SetDefault("storage.driver", "minio")
	v.SetDefault("storage.endpoint", "play.min.io:9000")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.rate_limit", 0)
	v.SetDefault("listing.page_size", 100)
	v.SetDefault("listing.max_page_size", 1000)
	v.SetDefault("listing.default_sort", "date-desc")
	v.SetDefault("listing.enumeration_cap", 2000)
	v.SetDefault("listing.delimiter", "/")
	v.SetDefault("listing.locale", "en")
	v.SetDefault("search.result_cap", 100)
	v.SetDefault("search.scan_limit", 0)
	v.SetDefault("enrich.batch_size", 10)
	v.SetDefault("objects.presign_ttl", time.Hour)
	v.SetDefault("objects.preview_max_bytes", 5<<20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
}

// New returns a viper instance wired for defaults and environment overrides.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration. An empty path searches ./config.yaml and
// /etc/iron-explorer/config.yaml; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/iron-explorer")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case "minio", "s3":
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", c.Storage.Driver))
	}
	if c.Storage.RateLimit < 0 {
		errs = append(errs, errors.New("storage.rate_limit: must not be negative"))
	}
	if c.Listing.PageSize < 1 {
		errs = append(errs, errors.New("listing.page_size: must be at least 1"))
	}
	if c.Listing.MaxPageSize < c.Listing.PageSize {
		errs = append(errs, errors.New("listing.max_page_size: must be at least listing.page_size"))
	}
	if !sortOrders[c.Listing.DefaultSort] {
		errs = append(errs, fmt.Errorf("listing.default_sort: unknown sort order %q", c.Listing.DefaultSort))
	}
	if c.Listing.EnumerationCap < 1 {
		errs = append(errs, errors.New("listing.enumeration_cap: must be at least 1"))
	}
	if c.Listing.Delimiter == "" {
		errs = append(errs, errors.New("listing.delimiter: must not be empty"))
	}
	if c.Search.ResultCap < 1 {
		errs = append(errs, errors.New("search.result_cap: must be at least 1"))
	}
	if c.Search.ScanLimit < 0 {
		errs = append(errs, errors.New("search.scan_limit: must not be negative"))
	}
	if c.Enrich.BatchSize < 1 {
		errs = append(errs, errors.New("enrich.batch_size: must be at least 1"))
	}
	if c.Objects.PresignTTL <= 0 || c.Objects.PresignTTL > MaxPresignTTL {
		errs = append(errs, fmt.Errorf("objects.presign_ttl: must be within (0, %s]", MaxPresignTTL))
	}
	if c.Objects.PreviewMaxBytes < 1 {
		errs = append(errs, errors.New("objects.preview_max_bytes: must be at least 1"))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
