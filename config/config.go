package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Turnover   TurnoverConfig   `yaml:"turnover"`
	Queue      QueueConfig      `yaml:"queue"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// TurnoverConfig holds the cleaning duration estimates per turnover type.
type TurnoverConfig struct {
	StandardMinutes  int `yaml:"standard_minutes"`
	DeepCleanMinutes int `yaml:"deep_clean_minutes"`
}

// QueueConfig holds the wait-time estimator configuration.
type QueueConfig struct {
	AverageTurnoverMinutes int           `yaml:"average_turnover_minutes"`
	RefreshIntervalSeconds int           `yaml:"refresh_interval_seconds"`
	RefreshInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	RefreshSampleSize      int           `yaml:"refresh_sample_size"`
}

// Load reads the configuration from the given path and applies defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}

	if cfg.Turnover.StandardMinutes <= 0 {
		cfg.Turnover.StandardMinutes = 45
	}
	if cfg.Turnover.DeepCleanMinutes <= 0 {
		cfg.Turnover.DeepCleanMinutes = 60
	}

	if cfg.Queue.AverageTurnoverMinutes <= 0 {
		cfg.Queue.AverageTurnoverMinutes = 90
	}
	if cfg.Queue.RefreshIntervalSeconds <= 0 {
		cfg.Queue.RefreshIntervalSeconds = 300
	}
	cfg.Queue.RefreshInterval = time.Duration(cfg.Queue.RefreshIntervalSeconds) * time.Second
	if cfg.Queue.RefreshSampleSize <= 0 {
		cfg.Queue.RefreshSampleSize = 50
	}

	return &cfg, nil
}
