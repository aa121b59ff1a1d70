package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a lib/pq connection string
func (d DatabaseConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
}

// IngestConfig holds background ingestion settings
type IngestConfig struct {
	QueueSize           int `mapstructure:"queue_size"`
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`
}

// RetentionConfig holds reading retention settings
type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// Config is the full application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Retention RetentionConfig `mapstructure:"retention"`
	LogLevel  string          `mapstructure:"log_level"`
	Metrics   bool            `mapstructure:"metrics"`
}

// Load reads configuration from the environment (ESTACION_* variables) with
// sensible defaults for local development.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("ESTACION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "weather_user")
	v.SetDefault("database.password", "weather_pass")
	v.SetDefault("database.name", "weather_db")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("server.port", 8000)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("server.jwt_secret", "")

	v.SetDefault("ingest.queue_size", 256)
	v.SetDefault("ingest.poll_interval_seconds", 60)
	v.SetDefault("ingest.fetch_timeout_seconds", 15)

	v.SetDefault("retention.days", 30)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics", true)

	// AutomaticEnv alone does not surface env-only keys through Unmarshal,
	// so bind each key explicitly.
	for _, key := range []string{
		"database.host", "database.port", "database.user", "database.password",
		"database.name", "database.sslmode",
		"server.port", "server.allowed_origins", "server.jwt_secret",
		"ingest.queue_size", "ingest.poll_interval_seconds", "ingest.fetch_timeout_seconds",
		"retention.days", "log_level", "metrics",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return &conf, nil
}
