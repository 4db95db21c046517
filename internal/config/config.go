// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	BalanceTTL time.Duration `yaml:"balance_ttl"`
}

type AIConfig struct {
	OpenAIKey        string `yaml:"openai_key"`
	OpenAIImageModel string `yaml:"openai_image_model"`
	GeminiKey        string `yaml:"gemini_key"`
	GeminiImageModel string `yaml:"gemini_image_model"`
	GeminiVideoModel string `yaml:"gemini_video_model"`
	DefaultProvider  string `yaml:"default_provider"` // openai | gemini
	Workers          int    `yaml:"workers"`          // generation pool size
}

type PaymentConfig struct {
	BaseURL     string        `yaml:"base_url"`
	MerchantID  string        `yaml:"merchant_id"`
	SaltKey     string        `yaml:"salt_key"`
	SaltIndex   string        `yaml:"salt_index"`
	RedirectURL string        `yaml:"redirect_url"`
	PollTimeout time.Duration `yaml:"poll_timeout"`
	WebhookRate int           `yaml:"webhook_rate"` // deliveries per source per minute
}

type SchedulerConfig struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	StaleAfter        time.Duration `yaml:"stale_after"`
	GrantInterval     time.Duration `yaml:"grant_interval"`
	ExpiryInterval    time.Duration `yaml:"expiry_interval"`
}

type SecurityConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	APIKey    string `yaml:"api_key"` // service-to-service bearer key
}

type TelegramConfig struct {
	Token    string  `yaml:"token"`
	AdminIDs []int64 `yaml:"admin_ids"`
}

type GenerationCosts struct {
	Image   int64 `yaml:"image"`
	Video   int64 `yaml:"video"`
	Upscale int64 `yaml:"upscale"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Payment   PaymentConfig   `yaml:"payment"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Security  SecurityConfig  `yaml:"security"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Costs     GenerationCosts `yaml:"costs"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Redis.BalanceTTL <= 0 {
		cfg.Redis.BalanceTTL = 30 * time.Second
	}
	if cfg.AI.Workers <= 0 {
		cfg.AI.Workers = 4
	}
	if cfg.AI.DefaultProvider == "" {
		cfg.AI.DefaultProvider = "openai"
	}
	if cfg.Payment.PollTimeout <= 0 {
		cfg.Payment.PollTimeout = 10 * time.Second
	}
	if cfg.Payment.WebhookRate <= 0 {
		cfg.Payment.WebhookRate = 60
	}
	if cfg.Scheduler.ReconcileInterval <= 0 {
		cfg.Scheduler.ReconcileInterval = time.Minute
	}
	if cfg.Scheduler.StaleAfter <= 0 {
		cfg.Scheduler.StaleAfter = 10 * time.Minute
	}
	if cfg.Scheduler.GrantInterval <= 0 {
		cfg.Scheduler.GrantInterval = 5 * time.Minute
	}
	if cfg.Scheduler.ExpiryInterval <= 0 {
		cfg.Scheduler.ExpiryInterval = time.Hour
	}
	if cfg.Costs.Image <= 0 {
		cfg.Costs.Image = 10
	}
	if cfg.Costs.Video <= 0 {
		cfg.Costs.Video = 100
	}
	if cfg.Costs.Upscale <= 0 {
		cfg.Costs.Upscale = 5
	}

	// Minimal validation. Developer mode runs without redis and gateway
	// credentials (noop stand-ins take their place).
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Security.JWTSecret == "" {
		return nil, errors.New("security.jwt_secret is required")
	}
	if !dev {
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis.addr is required")
		}
		if cfg.Payment.MerchantID == "" || cfg.Payment.SaltKey == "" {
			return nil, errors.New("payment.merchant_id and payment.salt_key are required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
