package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Quote    QuoteConfig
	Render   RenderConfig
	Storage  StorageConfig
	Business BusinessConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis is optional: when no
// host is configured the quote number sequence falls back to the database
// counter table.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis host is configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// Addr returns the host:port address for the Redis client
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxBodySize      int64
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// QuoteConfig holds quote pipeline defaults
type QuoteConfig struct {
	DefaultVATRate      float64 // percentage applied when the caller sends none
	DefaultHourlyRate   float64 // fallback rate for requirement pricing
	DefaultValidityDays int     // validity window applied when none is given
	MaxAttachmentBytes  int64   // upper bound for manually attached PDFs
}

// RenderConfig holds PDF rendering configuration
type RenderConfig struct {
	Timeout         time.Duration // hard cap per render
	MaxConcurrent   int           // renderer worker gate size
	ChromeURL       string        // remote Chrome instance, empty = launch locally
	ChromeNoSandbox bool          // required when running as root in containers
}

// StorageConfig holds artifact storage configuration.
// The S3 strategy participates in the chain only when a bucket is set; the
// filesystem strategy only when a base path is set.
type StorageConfig struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string // URL prefix for stored objects, e.g. CDN

	LocalBasePath string
	LocalBaseURL  string
}

// BusinessConfig is the issuing business profile injected into snapshots.
// It is explicit configuration, not ambient global state.
type BusinessConfig struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	TaxID    string
	Currency string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LEADCRM_ prefix (e.g., LEADCRM_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LEADCRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Quote: QuoteConfig{
			DefaultVATRate:      v.GetFloat64("quote.default_vat_rate"),
			DefaultHourlyRate:   v.GetFloat64("quote.default_hourly_rate"),
			DefaultValidityDays: v.GetInt("quote.default_validity_days"),
			MaxAttachmentBytes:  v.GetInt64("quote.max_attachment_bytes"),
		},
		Render: RenderConfig{
			Timeout:         v.GetDuration("render.timeout"),
			MaxConcurrent:   v.GetInt("render.max_concurrent"),
			ChromeURL:       v.GetString("render.chrome_url"),
			ChromeNoSandbox: v.GetBool("render.chrome_no_sandbox"),
		},
		Storage: StorageConfig{
			Bucket:        v.GetString("storage.bucket"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			PublicURL:     v.GetString("storage.public_url"),
			LocalBasePath: v.GetString("storage.local_base_path"),
			LocalBaseURL:  v.GetString("storage.local_base_url"),
		},
		Business: BusinessConfig{
			Name:     v.GetString("business.name"),
			Address:  v.GetString("business.address"),
			Phone:    v.GetString("business.phone"),
			Email:    v.GetString("business.email"),
			TaxID:    v.GetString("business.tax_id"),
			Currency: v.GetString("business.currency"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "leadcrm-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "leadcrm"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		} else {
			cfg.Log.Format = "console"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// rendering responses can carry inline PDF payloads
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 12 << 20 // attachments top out at 10MB plus envelope
	}
	if cfg.Quote.DefaultVATRate == 0 {
		cfg.Quote.DefaultVATRate = 17
	}
	if cfg.Quote.DefaultValidityDays == 0 {
		cfg.Quote.DefaultValidityDays = 30
	}
	if cfg.Quote.MaxAttachmentBytes == 0 {
		cfg.Quote.MaxAttachmentBytes = 10 << 20
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Render.MaxConcurrent == 0 {
		cfg.Render.MaxConcurrent = 2
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.LocalBaseURL == "" {
		cfg.Storage.LocalBaseURL = "/api/v1/artifacts"
	}
	if cfg.Business.Name == "" {
		cfg.Business.Name = "LeadCRM"
	}
	if cfg.Business.Currency == "" {
		cfg.Business.Currency = "₪"
	}
}

// validate checks configuration consistency
func (c *Config) validate() error {
	if c.Quote.DefaultVATRate < 0 {
		return fmt.Errorf("quote.default_vat_rate cannot be negative")
	}
	if c.Quote.DefaultHourlyRate < 0 {
		return fmt.Errorf("quote.default_hourly_rate cannot be negative")
	}
	if c.Render.MaxConcurrent < 1 {
		return fmt.Errorf("render.max_concurrent must be at least 1")
	}
	if c.Storage.Bucket != "" && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage.access_key and storage.secret_key are required when a bucket is configured")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
