package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// Store drivers accepted by store.driver.
const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreValkey   = "valkey"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Boundary  BoundaryConfig  `mapstructure:"boundary"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

// BoundaryConfig controls where region boundaries come from.
type BoundaryConfig struct {
	OverpassURL string `mapstructure:"overpass_url"`
	Country     string `mapstructure:"country"`
	AdminLevel  int    `mapstructure:"admin_level"`
	// Timeout bounds one provider call, in seconds.
	Timeout int `mapstructure:"timeout"`
	// CacheTTL is how long a fetched payload is reused, in seconds. 0 disables caching.
	CacheTTL int `mapstructure:"cache_ttl"`
}

func (b BoundaryConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// StoreConfig selects the visited-set backend.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
	// Path is the data directory used by the file and sqlite drivers.
	Path string `mapstructure:"path"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
	// Schedule is the cron expression for boundary refreshes.
	Schedule string `mapstructure:"schedule"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from .env, an optional config file and environment variables.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	// Environment variables: LGATRACKER_STORE_DRIVER → store.driver
	v.SetEnvPrefix("LGATRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("boundary.overpass_url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("boundary.country", "AU")
	v.SetDefault("boundary.admin_level", 6)
	v.SetDefault("boundary.timeout", 90)
	v.SetDefault("boundary.cache_ttl", 86400)
	v.SetDefault("store.driver", StoreFile)
	v.SetDefault("store.key", "visitedLGAs")
	v.SetDefault("store.path", "./data")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "lgatracker")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "lgatracker")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("valkey.addr", "")
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.namespace", "default")
	v.SetDefault("temporal.task_queue", "lga-boundaries")
	v.SetDefault("temporal.schedule", "0 3 * * 1")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Boundary.OverpassURL == "" {
		errs = append(errs, "boundary.overpass_url is required")
	}
	if len(c.Boundary.Country) != 2 {
		errs = append(errs, fmt.Sprintf("boundary.country must be an ISO 3166-1 alpha-2 code, got %q", c.Boundary.Country))
	}
	if c.Boundary.AdminLevel < 1 || c.Boundary.AdminLevel > 11 {
		errs = append(errs, fmt.Sprintf("boundary.admin_level must be 1-11, got %d", c.Boundary.AdminLevel))
	}
	if c.Boundary.Timeout <= 0 {
		errs = append(errs, "boundary.timeout must be positive")
	}
	if c.Boundary.CacheTTL < 0 {
		errs = append(errs, "boundary.cache_ttl must not be negative")
	}
	if c.Store.Key == "" {
		errs = append(errs, "store.key is required")
	}

	switch c.Store.Driver {
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Sprintf("store.path is required for the %s driver", c.Store.Driver))
		}
	case StorePostgres:
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
		}
		if c.Database.User == "" {
			errs = append(errs, "database.user is required")
		}
		if c.Database.DBName == "" {
			errs = append(errs, "database.dbname is required")
		}
	case StoreValkey:
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be one of file, sqlite, postgres, valkey, got %q", c.Store.Driver))
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, "nats.url is required when nats.enabled")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Filter returns the boundary selection.
func (b BoundaryConfig) Filter() domain.BoundaryFilter {
	return domain.BoundaryFilter{Country: strings.ToUpper(b.Country), AdminLevel: b.AdminLevel}
}
