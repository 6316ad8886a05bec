// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/lesson-runtime/internal/models"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	Billing         `yaml:"billing"`
	Playback        `yaml:"playback"`
	Session         `yaml:"session"`
	Google          `yaml:"google"`
	Catalog         []models.ContentItem `yaml:"catalog"`
}

// HTTPServer структура для настройки локальной панели управления
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// RateLimit — запросов в секунду на всю панель, 0 отключает ограничение
	RateLimit float64 `yaml:"rate_limit" env-default:"20"`
	RateBurst int     `yaml:"rate_burst" env-default:"40"`
}

// RedisConnection структура для настройки зеркала снимков в redis.
// Пустой адрес отключает зеркало.
type RedisConnection struct {
	AddressRedis string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeout" env-default:"2s"`
	SnapshotKey  string        `yaml:"snapshot_key" env-default:"lesson-runtime:snapshot"`
	SnapshotTTL  time.Duration `yaml:"snapshot_ttl"`
}

// Billing структура для подключения к очереди событий биллинга.
// Пустой AMQPURL отключает потребителя: события подписки тогда приходят только через панель.
type Billing struct {
	AMQPURL    string        `yaml:"amqp_url" env:"BILLING_AMQP_URL"`
	Exchange   string        `yaml:"exchange" env-default:"billing"`
	Queue      string        `yaml:"queue" env-default:"lesson-runtime.billing"`
	RoutingKey string        `yaml:"routing_key" env-default:"subscription"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// Playback структура для настройки программной медиасессии
type Playback struct {
	LoadDelay       time.Duration `yaml:"load_delay" env-default:"300ms"`
	Speed           float64       `yaml:"speed" env-default:"1"`
	DefaultDuration time.Duration `yaml:"default_duration" env-default:"5m"`
	Unavailable     []string      `yaml:"unavailable"`
}

// Session структура для настройки сессии и встроенного провайдера аутентификации
type Session struct {
	ClearRewardsOnSignOut bool          `yaml:"clear_rewards_on_sign_out"`
	AuthTimeout           time.Duration `yaml:"auth_timeout" env-default:"30s"`
	ProviderLatency       time.Duration `yaml:"provider_latency"`
	PasswordCost          int           `yaml:"password_cost" env-default:"10"`
}

// Google структура для входа через Google. Пустой SigningKey отключает этот способ входа.
type Google struct {
	SigningKey string        `yaml:"signing_key" env:"GOOGLE_SIGNING_KEY"`
	Issuer     string        `yaml:"issuer" env-default:"accounts.google.com"`
	TokenTTL   time.Duration `yaml:"token_ttl" env-default:"1h"`
	Subject    string        `yaml:"subject"`
	Name       string        `yaml:"name"`
	Email      string        `yaml:"email"`
}

// ErrEmptyCatalog возвращается Load, если в каталоге нет уроков.
var ErrEmptyCatalog = errors.New("catalog is empty")

// Load читает конфиг из файла path и проверяет каталог.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.normalizeCatalog(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) normalizeCatalog() error {
	if len(c.Catalog) == 0 {
		return ErrEmptyCatalog
	}
	seen := make(map[string]struct{}, len(c.Catalog))
	for i := range c.Catalog {
		item := &c.Catalog[i]
		if item.ID == "" {
			return fmt.Errorf("catalog item %d has no id", i)
		}
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate catalog item %q", item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Duration <= 0 {
			item.Duration = c.DefaultDuration
		}
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"  RateLimit: %g/%d\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"  SnapshotKey: %s\n"+
			"Billing:\n"+
			"  Queue: %s\n"+
			"  Exchange: %s\n"+
			"Playback:\n"+
			"  LoadDelay: %s\n"+
			"  Speed: %g\n"+
			"Session:\n"+
			"  ClearRewardsOnSignOut: %t\n"+
			"  AuthTimeout: %s\n"+
			"Catalog: %d items\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.RateLimit,
		c.RateBurst,
		c.AddressRedis,
		c.DB,
		c.SnapshotKey,
		c.Queue,
		c.Exchange,
		c.LoadDelay,
		c.Speed,
		c.ClearRewardsOnSignOut,
		c.AuthTimeout,
		len(c.Catalog),
	)
}
