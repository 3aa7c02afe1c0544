package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Screen     ScreenConfig     `mapstructure:"screen"`
	Directions DirectionsConfig `mapstructure:"directions"`
	Database   DatabaseConfig   `mapstructure:"database"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Valkey     ValkeyConfig     `mapstructure:"valkey"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type ScreenConfig struct {
	// PointSet selects the annotations: "devmountain" or "parks".
	PointSet string `mapstructure:"point_set"`
	// Authorization pre-seeds the location permission, as if granted on a
	// previous run. Empty leaves it not determined.
	Authorization string `mapstructure:"authorization"`
}

type DirectionsConfig struct {
	Provider     string        `mapstructure:"provider"` // "osrm" or "google"
	OSRMURL      string        `mapstructure:"osrm_url"`
	GoogleAPIKey string        `mapstructure:"google_api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"` // empty disables events and the device feed
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"` // empty disables the directions cache
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

// Load reads configuration from .env, an optional config file and
// environment variables, in increasing order of precedence.
func Load(service string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("screen.point_set", "devmountain")
	v.SetDefault("screen.authorization", "")
	v.SetDefault("directions.provider", "osrm")
	v.SetDefault("directions.osrm_url", "https://router.project-osrm.org")
	v.SetDefault("directions.google_api_key", "")
	v.SetDefault("directions.timeout", 20*time.Second)
	v.SetDefault("directions.cache_ttl", 10*time.Minute)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "mapscreen")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "mapscreen")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "")
	v.SetDefault("valkey.addr", "")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: MAPSCREEN_DIRECTIONS_PROVIDER → directions.provider
	v.SetEnvPrefix("MAPSCREEN")
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

	switch c.Screen.PointSet {
	case "devmountain", "parks":
	default:
		errs = append(errs, fmt.Sprintf("screen.point_set must be devmountain or parks, got %q", c.Screen.PointSet))
	}
	switch c.Screen.Authorization {
	case "", "not_determined", "restricted", "denied", "authorized_always", "authorized_when_in_use":
	default:
		errs = append(errs, fmt.Sprintf("screen.authorization is not a known status: %q", c.Screen.Authorization))
	}

	switch c.Directions.Provider {
	case "osrm":
		if c.Directions.OSRMURL == "" {
			errs = append(errs, "directions.osrm_url is required for the osrm provider")
		}
	case "google":
		if c.Directions.GoogleAPIKey == "" {
			errs = append(errs, "directions.google_api_key is required for the google provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("directions.provider must be osrm or google, got %q", c.Directions.Provider))
	}
	if c.Directions.Timeout <= 0 {
		errs = append(errs, "directions.timeout must be positive")
	}

	if c.Database.Enabled {
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
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
