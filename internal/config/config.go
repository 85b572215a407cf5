package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the revenue scanner service
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Shopify  ShopifyConfig  `mapstructure:"shopify"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// ShopifyConfig holds the app credentials issued by the Partner dashboard
type ShopifyConfig struct {
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	APIVersion string `mapstructure:"api_version"`
	Scopes     string `mapstructure:"scopes"`
}

// ScanConfig holds scan query settings
type ScanConfig struct {
	OrderLookbackDays int           `mapstructure:"order_lookback_days"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// RedisConfig holds Redis configuration for the recovery ledger
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// SentryConfig holds Sentry error tracking configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
	Release     string `mapstructure:"release"`
}

// RecoveryConfig holds abandoned cart recovery settings
type RecoveryConfig struct {
	ReminderCooldown time.Duration `mapstructure:"reminder_cooldown"`
	DiscountTTL      time.Duration `mapstructure:"discount_ttl"`
	DiscountPrefix   string        `mapstructure:"discount_prefix"`
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins string `mapstructure:"allowed_origins"`
}

// Origins splits the comma separated origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvPrefix("")

	_ = v.BindEnv("app.name", "APP_NAME")
	_ = v.BindEnv("app.env", "APP_ENV")
	_ = v.BindEnv("app.port", "APP_PORT")

	// Shopify
	_ = v.BindEnv("shopify.api_key", "SHOPIFY_API_KEY")
	_ = v.BindEnv("shopify.api_secret", "SHOPIFY_API_SECRET")
	_ = v.BindEnv("shopify.api_version", "SHOPIFY_API_VERSION")
	_ = v.BindEnv("shopify.scopes", "SCOPES")

	// Scan
	_ = v.BindEnv("scan.order_lookback_days", "SCAN_ORDER_LOOKBACK_DAYS")
	_ = v.BindEnv("scan.request_timeout", "SCAN_REQUEST_TIMEOUT")
	_ = v.BindEnv("scan.max_retries", "SCAN_MAX_RETRIES")

	// Redis
	_ = v.BindEnv("redis.host", "REDIS_HOST")
	_ = v.BindEnv("redis.port", "REDIS_PORT")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")

	_ = v.BindEnv("nats.url", "NATS_URL")

	_ = v.BindEnv("sentry.dsn", "SENTRY_DSN")
	_ = v.BindEnv("sentry.environment", "APP_ENV")
	_ = v.BindEnv("sentry.release", "APP_VERSION")

	// Recovery
	_ = v.BindEnv("recovery.reminder_cooldown", "RECOVERY_REMINDER_COOLDOWN")
	_ = v.BindEnv("recovery.discount_ttl", "RECOVERY_DISCOUNT_TTL")
	_ = v.BindEnv("recovery.discount_prefix", "RECOVERY_DISCOUNT_PREFIX")

	_ = v.BindEnv("cors.allowed_origins", "ALLOWED_ORIGINS")

	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.Shopify.APIKey == "" || c.Shopify.APISecret == "") {
		return errors.New("SHOPIFY_API_KEY and SHOPIFY_API_SECRET are required in production")
	}
	if c.Scan.OrderLookbackDays <= 0 {
		return fmt.Errorf("scan.order_lookback_days must be positive, got %d", c.Scan.OrderLookbackDays)
	}
	if c.Shopify.APIVersion == "" {
		return errors.New("shopify.api_version is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "service-revenue-scanner")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8010")

	// Shopify
	v.SetDefault("shopify.api_version", "2025-01")
	v.SetDefault("shopify.scopes", "read_products,read_orders,read_checkouts,read_themes,read_content")

	// Scan
	v.SetDefault("scan.order_lookback_days", 365)
	v.SetDefault("scan.request_timeout", 15*time.Second)
	v.SetDefault("scan.max_retries", 3)

	// Redis
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// NATS
	v.SetDefault("nats.url", "")

	// Sentry
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "development")
	v.SetDefault("sentry.release", "1.0.0")

	// Recovery
	v.SetDefault("recovery.reminder_cooldown", 24*time.Hour)
	v.SetDefault("recovery.discount_ttl", 168*time.Hour)
	v.SetDefault("recovery.discount_prefix", "COMEBACK")

	v.SetDefault("cors.allowed_origins", "https://admin.shopify.com")
}
