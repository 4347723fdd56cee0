// Package config loads service configuration with viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	GRPC        GRPCConfig
	HTTP        HTTPConfig
	Log         LogConfig
	Cache       CacheConfig
	Filter      FilterConfig
	Connections ConnectionsConfig
}

// AppConfig holds application-wide settings
type AppConfig struct {
	Name     string
	Env      string // development, test, production
	SeedDemo bool   // load a demo catalog into an empty database at startup
}

// DatabaseConfig holds Postgres connection settings.
// URL, when set, wins over the individual fields.
type DatabaseConfig struct {
	URL             string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectTimeout  time.Duration
}

// GRPCConfig holds gRPC server settings
type GRPCConfig struct {
	Addr       string
	APIToken   string
	Reflection bool
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RateLimit       float64 // requests per second per client, 0 disables
	RateBurst       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// CacheConfig holds in-memory cache lifetimes
type CacheConfig struct {
	CatalogTTL time.Duration
	ReportTTL  time.Duration
}

// FilterConfig holds the sales list filter defaults
type FilterConfig struct {
	SearchDebounce       time.Duration
	DefaultSortColumn    string
	DefaultSortDirection string
}

// ConnectionsConfig holds client/instrument relationship settings
type ConnectionsConfig struct {
	// IncludeUnlisted shows relationship types outside the known four in summaries
	IncludeUnlisted bool
}

// Load reads configuration.
// Priority (highest to lowest):
//  1. Environment variables with the LUTHIER_ prefix (e.g. LUTHIER_DATABASE_PASSWORD)
//  2. config.toml in the working directory or /etc/luthier
//  3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/luthier")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LUTHIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			SeedDemo: v.GetBool("app.seed_demo"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			ConnectTimeout:  v.GetDuration("database.connect_timeout"),
		},
		GRPC: GRPCConfig{
			Addr:       v.GetString("grpc.addr"),
			APIToken:   v.GetString("grpc.api_token"),
			Reflection: v.GetBool("grpc.reflection"),
		},
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			RateLimit:       v.GetFloat64("http.rate_limit"),
			RateBurst:       v.GetInt("http.rate_burst"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Cache: CacheConfig{
			CatalogTTL: v.GetDuration("cache.catalog_ttl"),
			ReportTTL:  v.GetDuration("cache.report_ttl"),
		},
		Filter: FilterConfig{
			SearchDebounce:       v.GetDuration("filter.search_debounce"),
			DefaultSortColumn:    v.GetString("filter.default_sort_column"),
			DefaultSortDirection: v.GetString("filter.default_sort_direction"),
		},
		Connections: ConnectionsConfig{
			IncludeUnlisted: v.GetBool("connections.include_unlisted"),
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
		cfg.App.Name = "luthier-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
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
	if cfg.Database.Password == "" && cfg.App.Env != "production" {
		cfg.Database.Password = "postgres"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "luthier"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = time.Hour
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = 10 * time.Second
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":8080"
	}
	if cfg.GRPC.APIToken == "" && cfg.App.Env != "production" {
		cfg.GRPC.APIToken = "dev-token"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8081"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.RateLimit > 0 && cfg.HTTP.RateBurst == 0 {
		cfg.HTTP.RateBurst = int(cfg.HTTP.RateLimit * 2)
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
	if cfg.Cache.CatalogTTL == 0 {
		cfg.Cache.CatalogTTL = 5 * time.Minute
	}
	if cfg.Cache.ReportTTL == 0 {
		cfg.Cache.ReportTTL = 30 * time.Second
	}
	if cfg.Filter.SearchDebounce == 0 {
		cfg.Filter.SearchDebounce = 300 * time.Millisecond
	}
	if cfg.Filter.DefaultSortColumn == "" {
		cfg.Filter.DefaultSortColumn = "sale_date"
	}
	if cfg.Filter.DefaultSortDirection == "" {
		cfg.Filter.DefaultSortDirection = "desc"
	}
}

func (c *Config) validate() error {
	switch c.App.Env {
	case "development", "test", "production":
	default:
		return fmt.Errorf("invalid app env: %s", c.App.Env)
	}
	if c.Database.URL == "" && (c.Database.Port <= 0 || c.Database.Port > 65535) {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			return fmt.Errorf("invalid database url: %w", err)
		}
	}
	if c.App.Env == "production" && c.App.SeedDemo {
		return errors.New("demo seeding is not allowed in production")
	}
	if c.App.Env == "production" && c.GRPC.APIToken == "" {
		return errors.New("grpc api token is required in production")
	}
	if c.Cache.CatalogTTL < 0 || c.Cache.ReportTTL < 0 {
		return errors.New("cache ttl cannot be negative")
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 {
		return errors.New("rate limit cannot be negative")
	}
	if c.Filter.SearchDebounce < 0 {
		return errors.New("search debounce cannot be negative")
	}
	switch c.Filter.DefaultSortDirection {
	case "asc", "desc":
	default:
		return fmt.Errorf("invalid default sort direction: %s", c.Filter.DefaultSortDirection)
	}
	return nil
}

// DSN returns the Postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, int(d.ConnectTimeout.Seconds()))
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
