package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. COMPOUND_DATABASE_PASSWORD
// or COMPOUND_PASSES_ACTIVATE_IMMEDIATELY.
const EnvPrefix = "COMPOUND"

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Passes   PassesConfig   `yaml:"passes"`
	Worker   WorkerConfig   `yaml:"worker"`
	Push     PushConfig     `yaml:"push"`
}

type HTTPConfig struct {
	Address         string  `yaml:"address"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec" split_words:"true"`
	RateLimitBurst  int     `yaml:"rate_limit_burst" split_words:"true"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds" split_words:"true"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode" split_words:"true"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	EventsTopic        string   `yaml:"events_topic" split_words:"true"`
	NotificationsTopic string   `yaml:"notifications_topic" split_words:"true"`
	GroupID            string   `yaml:"group_id" split_words:"true"`
}

type BookingConfig struct {
	Timezone               string `yaml:"timezone"`
	LockTTLSeconds         int    `yaml:"lock_ttl_seconds" split_words:"true"`
	AmenityCacheTTLSeconds int    `yaml:"amenity_cache_ttl_seconds" split_words:"true"`

	Location *time.Location `yaml:"-" ignored:"true"`
}

// DefaultGracePeriodMinutes applies when grace_period_minutes is absent.
// An explicit 0 activates passes only at the expected arrival.
const DefaultGracePeriodMinutes = 30

type PassesConfig struct {
	GracePeriodMinutes   *int `yaml:"grace_period_minutes" split_words:"true"`
	DefaultValidityHours int  `yaml:"default_validity_hours" split_words:"true"`
	ActivateImmediately  bool `yaml:"activate_immediately" split_words:"true"`
}

type WorkerConfig struct {
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds" split_words:"true"`
	NotifierPoolSize     int `yaml:"notifier_pool_size" split_words:"true"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key" split_words:"true"`
	PrivateKey string `yaml:"vapid_private_key" split_words:"true"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

func (p PushConfig) Enabled() bool {
	return p.PublicKey != "" && p.PrivateKey != ""
}

// LoadConfig reads the YAML file at path, then applies COMPOUND_* environment
// overrides (a .env file in the working directory is loaded first) and defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warning: could not load .env file: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimitPerSec <= 0 {
		c.HTTP.RateLimitPerSec = 10
	}
	if c.HTTP.RateLimitBurst <= 0 {
		c.HTTP.RateLimitBurst = 5
	}
	if c.HTTP.CacheTTLSeconds < 0 {
		c.HTTP.CacheTTLSeconds = 0
	}

	if c.Booking.LockTTLSeconds <= 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.AmenityCacheTTLSeconds <= 0 {
		c.Booking.AmenityCacheTTLSeconds = 300
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return fmt.Errorf("invalid booking.timezone %q: %w", c.Booking.Timezone, err)
	}
	c.Booking.Location = loc

	if c.Passes.GracePeriodMinutes == nil {
		grace := DefaultGracePeriodMinutes
		c.Passes.GracePeriodMinutes = &grace
	} else if *c.Passes.GracePeriodMinutes < 0 {
		*c.Passes.GracePeriodMinutes = 0
	}
	if c.Passes.DefaultValidityHours <= 0 {
		c.Passes.DefaultValidityHours = 24
	}

	if c.Worker.SweepIntervalSeconds <= 0 {
		c.Worker.SweepIntervalSeconds = 60
	}
	if c.Worker.NotifierPoolSize <= 0 {
		log.Printf("worker.notifier_pool_size is not set or invalid; defaulting to 1")
		c.Worker.NotifierPoolSize = 1
	}

	if c.Push.TTL <= 0 {
		c.Push.TTL = 3600
	}
	return nil
}

func (c BookingConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

func (c BookingConfig) AmenityCacheTTL() time.Duration {
	return time.Duration(c.AmenityCacheTTLSeconds) * time.Second
}

func (c PassesConfig) GracePeriod() time.Duration {
	if c.GracePeriodMinutes == nil {
		return DefaultGracePeriodMinutes * time.Minute
	}
	return time.Duration(*c.GracePeriodMinutes) * time.Minute
}

func (c PassesConfig) DefaultValidity() time.Duration {
	return time.Duration(c.DefaultValidityHours) * time.Hour
}

func (c WorkerConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}
