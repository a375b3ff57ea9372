package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Environment variables that override secrets from the TOML file.
const (
	EnvAPIToken = "HSRX_API_TOKEN"
	EnvUsername = "HSRX_USERNAME"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Metadata MetadataConfig `toml:"metadata"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// APIConfig points the client at a replay site.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Token          string `toml:"token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout, defaulting to 30 seconds.
func (c APIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MetadataConfig configures the card metadata cache.
type MetadataConfig struct {
	URLTemplate    string `toml:"url_template"`
	Locale         string `toml:"locale"`
	DefaultLocale  string `toml:"default_locale"`
	Backend        string `toml:"backend"`
	RedisURL       string `toml:"redis_url"`
	RedisNamespace string `toml:"redis_namespace"`
	RedisTTLHours  int    `toml:"redis_ttl_hours"`
}

// RedisTTL is the expiry of documents stored in Redis; zero keeps them forever.
func (c MetadataConfig) RedisTTL() time.Duration {
	if c.RedisTTLHours <= 0 {
		return 0
	}
	return time.Duration(c.RedisTTLHours) * time.Hour
}

// MetricsConfig configures the telemetry pipeline.
type MetricsConfig struct {
	Enabled         bool   `toml:"enabled"`
	Endpoint        string `toml:"endpoint"`
	IntervalSeconds int    `toml:"interval_seconds"`
	Release         string `toml:"release"`
}

// Interval returns the batch flush interval, defaulting to 15 seconds.
func (c MetricsConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the fixture API server.
type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Fixtures int    `toml:"fixtures"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv loads the given dotenv files (missing files are ignored) and
// overrides the API token and username from the environment.
func (c *Config) ApplyEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if v := os.Getenv(EnvAPIToken); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv(EnvUsername); v != "" {
		c.API.Username = v
	}
	return nil
}

// SaveEnv merges values into the dotenv file at path, creating it when missing.
func SaveEnv(path string, values map[string]string) error {
	existing := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		if existing, err = godotenv.Read(path); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	for k, v := range values {
		existing[k] = v
	}
	return godotenv.Write(existing, path)
}
