package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultPort       = 5000
	defaultTokenTTL   = 7 * 24 * time.Hour
	defaultCORSOrigin = "http://localhost:3000"
	productionEnv     = "production"
)

// Config holds all application configuration.
type Config struct {
	Env      string         `toml:"env"`
	Database DatabaseConfig `toml:"database"`
	HTTP     HTTPConfig     `toml:"http"`
	GRPC     GRPCConfig     `toml:"grpc"`
	Auth     AuthConfig     `toml:"auth"`
}

// DatabaseConfig contains database-related settings.
type DatabaseConfig struct {
	Path string `toml:"path"` // SQLite database file path
}

// HTTPConfig contains the public API listener settings.
type HTTPConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// GRPCConfig contains the admin gRPC listener settings.
type GRPCConfig struct {
	Address string `toml:"address"` // e.g. ":50051"
}

// AuthConfig contains token settings.
type AuthConfig struct {
	JWTSecret string        `toml:"jwt_secret"`
	TokenTTL  time.Duration `toml:"token_ttl"`
}

// ErrMissingSecret is returned when no JWT signing secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET is not set; refusing to start without a signing secret")

// Load builds the configuration from defaults, then an optional TOML file
// named by CONFIG_FILE, then environment variables. The result is validated;
// a missing secret or a bad port is an error.
func Load() (*Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env: "development",
		Database: DatabaseConfig{
			Path: "data/database.sqlite",
		},
		HTTP: HTTPConfig{
			Port:        defaultPort,
			CORSOrigins: []string{defaultCORSOrigin},
		},
		GRPC: GRPCConfig{
			Address: ":50051",
		},
		Auth: AuthConfig{
			TokenTTL: defaultTokenTTL,
		},
	}
}

func applyEnv(cfg *Config) error {
	cfg.Env = getEnv("APP_ENV", cfg.Env)
	cfg.Database.Path = getEnv("DB_PATH", cfg.Database.Path)
	cfg.GRPC.Address = getEnv("GRPC_ADDRESS", cfg.GRPC.Address)
	cfg.Auth.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", cfg.Auth.JWTSecret))

	port, err := getEnvInt("PORT", cfg.HTTP.Port)
	if err != nil {
		return err
	}
	cfg.HTTP.Port = port

	if raw, ok := os.LookupEnv("CORS_ORIGIN"); ok {
		cfg.HTTP.CORSOrigins = parseOrigins(raw)
	}

	if raw, ok := os.LookupEnv("TOKEN_TTL"); ok {
		ttl, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid duration for TOKEN_TTL: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	return nil
}

// Validate reports configuration that must stop the process from starting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return ErrMissingSecret
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid PORT value %d: must be a positive integer", c.HTTP.Port)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token TTL %s", c.Auth.TokenTTL)
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{defaultCORSOrigin}
	}
	return nil
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, productionEnv)
}

// HTTPAddress is the fiber listen address.
func (c *Config) HTTPAddress() string {
	return ":" + strconv.Itoa(c.HTTP.Port)
}

func parseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{defaultCORSOrigin}
	}
	return out
}

// getEnv retrieves an environment variable with a default fallback.
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// getEnvInt retrieves an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) (int, error) {
	if value, exists := os.LookupEnv(key); exists {
		intVal, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
		}
		return intVal, nil
	}
	return defaultVal, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{Env: %s, DB: %s, HTTP: %s, gRPC: %s, CORS: %v, TokenTTL: %s, Auth: *** (masked) ***}",
		c.Env, c.Database.Path, c.HTTPAddress(), c.GRPC.Address, c.HTTP.CORSOrigins, c.Auth.TokenTTL)
}
