package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"shareit/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Seed       SeedConfig       `yaml:"seed"`
}

type BookingConfig struct {
	// UserHeader carries the acting user id on every request.
	UserHeader      string `yaml:"user_header"`
	DefaultPageSize int    `yaml:"default_page_size"`
	// ExportBatchSize is the page size the xlsx export reads with.
	ExportBatchSize int    `yaml:"export_batch_size"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	GRPC      APIGRPCConfig      `yaml:"grpc"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type APIGRPCConfig struct {
	Enabled bool         `yaml:"enabled"`
	Port    int          `yaml:"port"`
	TLS     APITLSConfig `yaml:"tls"`
}

type APITLSConfig struct {
	Enabled           bool   `yaml:"enabled"`
	CertFile          string `yaml:"cert_file"`
	KeyFile           string `yaml:"key_file"`
	ClientCAFile      string `yaml:"client_ca_file"`
	RequireClientCert bool   `yaml:"require_client_cert"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	// RPS and Burst bound each API key.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
	// UserWrites bounds mutating requests per acting user per UserWindow.
	// Zero turns the quota off.
	UserWrites int           `yaml:"user_writes"`
	UserWindow time.Duration `yaml:"user_window"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type SeedConfig struct {
	Path string `yaml:"path"`
}

// Load reads an optional .env file from the working directory, then the
// YAML file at configPath with ${VAR} references expanded.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Booking.UserHeader == "" {
		return errors.New("booking user header is required")
	}

	if c.Booking.DefaultPageSize < 1 {
		return fmt.Errorf("booking default page size must be positive, got %d", c.Booking.DefaultPageSize)
	}

	if c.Booking.ExportBatchSize < 1 {
		return fmt.Errorf("booking export batch size must be positive, got %d", c.Booking.ExportBatchSize)
	}

	if c.API.HTTP.Enabled && c.API.GRPC.Enabled && c.API.HTTP.Port == c.API.GRPC.Port {
		return fmt.Errorf("http and grpc cannot share port %d", c.API.HTTP.Port)
	}

	if c.API.GRPC.TLS.Enabled && (c.API.GRPC.TLS.CertFile == "" || c.API.GRPC.TLS.KeyFile == "") {
		return errors.New("grpc tls requires cert_file and key_file")
	}

	if c.API.Auth.Enabled {
		if len(c.API.Auth.APIKeys) == 0 {
			return errors.New("api auth is enabled but no api keys are configured")
		}
		return ValidateAPIKeys(c.API.Auth.APIKeys)
	}

	return nil
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if k.Key == "" {
			return fmt.Errorf("api client '%s' has empty key", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "shareit"
	}
	if c.API.GRPC.Port == 0 {
		c.API.GRPC.Port = 9091
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 9090
	}
	if c.API.HTTP.ReadTimeout == 0 {
		c.API.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.API.HTTP.WriteTimeout == 0 {
		c.API.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.API.HTTP.ShutdownTimeout == 0 {
		c.API.HTTP.ShutdownTimeout = 5 * time.Second
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9100
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.UserWindow == 0 {
		c.API.RateLimit.UserWindow = time.Minute
	}

	if c.Booking.UserHeader == "" {
		c.Booking.UserHeader = http.CanonicalHeaderKey("X-Sharer-User-Id")
	}
	if c.Booking.DefaultPageSize == 0 {
		c.Booking.DefaultPageSize = models.DefaultPageSize
	}
	if c.Booking.ExportBatchSize == 0 {
		c.Booking.ExportBatchSize = 100
	}
}
