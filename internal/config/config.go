// Package config loads the clinic bot configuration: the reusable core
// settings plus the clinic-specific sections.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coreconfig "github.com/mkamenev/clinicbot/core/config"
	coredatabase "github.com/mkamenev/clinicbot/core/database"
)

// RedisConfig points at the Redis instance backing sessions and the
// reference cache.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// CacheConfig controls reference cache freshness.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"CACHE_TTL"`
}

// SessionConfig controls conversation session persistence.
type SessionConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// ClinicConfig holds the clinic domain settings.
type ClinicConfig struct {
	SuperAdminID int64  `yaml:"super_admin_id" envconfig:"CLINIC_SUPER_ADMIN_ID"`
	OpsChatID    int64  `yaml:"ops_chat_id" envconfig:"CLINIC_OPS_CHAT_ID"`
	StatsChatID  int64  `yaml:"stats_chat_id" envconfig:"CLINIC_STATS_CHAT_ID"`
	PhotoDir     string `yaml:"photo_dir" envconfig:"CLINIC_PHOTO_DIR"`
	PhotoExt     string `yaml:"photo_ext" envconfig:"CLINIC_PHOTO_EXT"`
	PageSize     int    `yaml:"page_size" envconfig:"CLINIC_PAGE_SIZE"`
	SpecsPerRow  int    `yaml:"specs_per_row" envconfig:"CLINIC_SPECS_PER_ROW"`
	Contacts     string `yaml:"contacts"`
	Instruction  string `yaml:"instruction"`
}

// LinksConfig points at the conference link generator service.
type LinksConfig struct {
	BaseURL string        `yaml:"base_url" envconfig:"LINKS_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" envconfig:"LINKS_TIMEOUT"`
}

// PaymentsConfig carries the Telegram payments provider token.
type PaymentsConfig struct {
	ProviderToken string `yaml:"provider_token" envconfig:"PAYMENTS_PROVIDER_TOKEN"`
	Currency      string `yaml:"currency" envconfig:"PAYMENTS_CURRENCY"`
}

// Config is the full application configuration.
type Config struct {
	Core     coreconfig.Config   `yaml:",inline"`
	Database coredatabase.Config `yaml:"database"`
	Redis    RedisConfig         `yaml:"redis"`
	Cache    CacheConfig         `yaml:"cache"`
	Session  SessionConfig       `yaml:"session"`
	Clinic   ClinicConfig        `yaml:"clinic"`
	Links    LinksConfig         `yaml:"links"`
	Payments PaymentsConfig      `yaml:"payments"`
}

// CoreConfig exposes the embedded core configuration for the shared runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Core
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := coreconfig.Normalize(&cfg.Core); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 48 * time.Hour
	}
	if cfg.Clinic.PhotoDir == "" {
		cfg.Clinic.PhotoDir = "photos"
	}
	if cfg.Clinic.PhotoExt == "" {
		cfg.Clinic.PhotoExt = ".jpg"
	}
	if cfg.Clinic.PageSize <= 0 {
		cfg.Clinic.PageSize = 10
	}
	if cfg.Clinic.SpecsPerRow <= 0 {
		cfg.Clinic.SpecsPerRow = 2
	}
	if cfg.Links.Timeout <= 0 {
		cfg.Links.Timeout = 15 * time.Second
	}
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "RUB"
	}
}

func validate(cfg *Config) error {
	if cfg.Database.Host == "" || cfg.Database.Name == "" {
		return fmt.Errorf("database host and name are required")
	}
	if cfg.Clinic.SuperAdminID == 0 {
		return fmt.Errorf("clinic.super_admin_id is required")
	}
	return nil
}
