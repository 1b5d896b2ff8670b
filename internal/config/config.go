// Package config loads the storefront configuration from an optional TOML
// file and STOREFRONT_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"golang.org/x/text/currency"
)

const envPrefix = "STOREFRONT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Orders   OrdersConfig   `mapstructure:"orders"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Mail     MailConfig     `mapstructure:"mail"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Shipping ShippingConfig `mapstructure:"shipping"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
	// idle checkout sessions are dropped after this long
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Backend     string        `mapstructure:"backend"`
	SaveTimeout time.Duration `mapstructure:"save_timeout"`
	File        struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"file"`
	Postgres struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"postgres"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`
	Mongo struct {
		URI      string        `mapstructure:"uri"`
		Database string        `mapstructure:"database"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"mongo"`
}

type CatalogConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type OrdersConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	SubmitTimeout time.Duration `mapstructure:"submit_timeout"`
}

type UploadConfig struct {
	BaseURL string `mapstructure:"base_url"`
	MaxSize int64  `mapstructure:"max_size"`
}

type MailConfig struct {
	URL string `mapstructure:"url"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type AMQPConfig struct {
	URL   string `mapstructure:"url"`
	Queue string `mapstructure:"queue"`
}

type AuthConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type ShippingConfig struct {
	Currency string         `mapstructure:"currency"`
	Regions  []RegionConfig `mapstructure:"regions"`
}

type RegionConfig struct {
	Name string `mapstructure:"name"`
	Fee  string `mapstructure:"fee"`
}

var storageBackends = []string{"memory", "file", "postgres", "redis", "mongo"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.secure_cookies", false)
	v.SetDefault("server.session_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.save_timeout", 5*time.Second)
	v.SetDefault("storage.file.dir", "data/carts")
	v.SetDefault("storage.postgres.url", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.ttl", 30*24*time.Hour)
	v.SetDefault("storage.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("storage.mongo.database", "storefront")
	v.SetDefault("storage.mongo.ttl", 30*24*time.Hour)

	v.SetDefault("catalog.base_url", "")
	v.SetDefault("orders.base_url", "")
	v.SetDefault("orders.submit_timeout", 30*time.Second)
	v.SetDefault("upload.base_url", "")
	v.SetDefault("upload.max_size", 10<<20)
	v.SetDefault("mail.url", "")
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "order-confirmations")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "orders")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.issuer", "")

	v.SetDefault("shipping.currency", "PHP")
	v.SetDefault("shipping.regions", []map[string]any{
		{"name": "Apopong", "fee": "220"},
		{"name": "Calumpang", "fee": "200"},
		{"name": "Fatima", "fee": "180"},
		{"name": "Lagao", "fee": "150"},
	})
}

// Load reads path when it is not empty and applies environment overrides,
// e.g. STOREFRONT_STORAGE_BACKEND=redis.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("v.ReadInConfig: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("v.Unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if !slices.Contains(storageBackends, c.Storage.Backend) {
		errs = append(errs, fmt.Errorf("storage.backend[%s] is not one of %v", c.Storage.Backend, storageBackends))
	}
	if c.Storage.Backend == "postgres" && c.Storage.Postgres.URL == "" {
		errs = append(errs, fmt.Errorf("storage.postgres.url is empty"))
	}
	if c.Catalog.BaseURL == "" {
		errs = append(errs, fmt.Errorf("catalog.base_url is empty"))
	}
	if c.Orders.BaseURL == "" {
		errs = append(errs, fmt.Errorf("orders.base_url is empty"))
	}
	if c.Orders.SubmitTimeout <= 0 {
		errs = append(errs, fmt.Errorf("orders.submit_timeout must be positive"))
	}
	if _, err := c.Shipping.Rates(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c ShippingConfig) Unit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("shipping.currency[%s] is not valid: %w", c.Currency, err)
	}
	return unit, nil
}

// Rates builds the shipping rate table. Region names keep their case.
func (c ShippingConfig) Rates() (domain.ShippingRates, error) {
	unit, err := c.Unit()
	if err != nil {
		return domain.ShippingRates{}, err
	}

	rates := domain.ShippingRates{Currency: unit, Fees: make(map[string]decimal.Decimal, len(c.Regions))}
	for _, r := range c.Regions {
		if r.Name == "" {
			return domain.ShippingRates{}, fmt.Errorf("shipping region name is empty")
		}
		if _, ok := rates.Fees[r.Name]; ok {
			return domain.ShippingRates{}, fmt.Errorf("shipping region[%s] is duplicated", r.Name)
		}

		fee, err := decimal.NewFromString(r.Fee)
		if err != nil {
			return domain.ShippingRates{}, fmt.Errorf("shipping region[%s] fee[%s] is not valid: %w", r.Name, r.Fee, err)
		}
		if fee.IsNegative() {
			return domain.ShippingRates{}, fmt.Errorf("shipping region[%s] fee is negative", r.Name)
		}

		rates.Fees[r.Name] = fee
	}

	return rates, nil
}

func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level[%s] is not valid: %w", c.Level, err)
	}
	return level, nil
}
