package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for practice-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis cache configuration (optional - engine runs cache-less if unset)
	Redis RedisConfig `yaml:"redis"`

	// Engine tuning
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"practice"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"practice_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis cache configuration.
// Leaving Host empty disables caching; every read falls through to live computation.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// EngineConfig holds affinity engine tuning parameters.
type EngineConfig struct {
	// DefaultThreshold is the team-average affinity below which a practice
	// is not recommended, unless the caller supplies its own threshold.
	DefaultThreshold int `yaml:"default_threshold" env:"ENGINE_DEFAULT_THRESHOLD" env-default:"70"`

	// RecalcWorkers bounds how many per-person affinity recalculations may
	// run concurrently. Recalculations for the same person always run in
	// submission order regardless of this setting.
	RecalcWorkers int `yaml:"recalc_workers" env:"ENGINE_RECALC_WORKERS" env-default:"4"`

	// Cache TTLs, ordered by volatility of the cached value.
	PersonAffinityTTL time.Duration `yaml:"person_affinity_ttl" env:"ENGINE_PERSON_AFFINITY_TTL" env-default:"1h"`
	TeamAffinityTTL   time.Duration `yaml:"team_affinity_ttl" env:"ENGINE_TEAM_AFFINITY_TTL" env-default:"10m"`
	RecommendationTTL time.Duration `yaml:"recommendation_ttl" env:"ENGINE_RECOMMENDATION_TTL" env-default:"2m"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFrom reads configuration from an explicit path. Used by tests.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Engine.DefaultThreshold < 0 || c.Engine.DefaultThreshold > 100 {
		return fmt.Errorf("default_threshold must be within [0,100], got %d", c.Engine.DefaultThreshold)
	}
	if c.Engine.RecalcWorkers < 1 {
		return fmt.Errorf("recalc_workers must be at least 1, got %d", c.Engine.RecalcWorkers)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
