// Package config описывает настройки сервисов EBT и загружает их из YAML-файла
// (путь в CONFIG_PATH) с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Режимы доставки уведомлений.
const (
	NotifierDirect = "direct"
	NotifierQueue  = "queue"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string    `yaml:"env" env:"EBT_ENV" env-default:"local"`
	Storage         Storage   `yaml:"storage"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	JWTToken        `yaml:"jwttoken"`
	RabbitMQ        RabbitMQ  `yaml:"rabbitmq"`
	Notifier        Notifier  `yaml:"notifier"`
	Stats           Stats     `yaml:"stats"`
	RateLimit       RateLimit `yaml:"rate_limit"`
	Reminder        Reminder  `yaml:"reminder"`
	CORS            CORS      `yaml:"cors"`
}

// Storage выбирает бэкенд хранилища: postgres для серверного варианта,
// sqlite для локального однопользовательского.
type Storage struct {
	Driver           string `yaml:"driver" env:"EBT_STORAGE_DRIVER" env-default:"postgres"`
	ConnectionString string `yaml:"connection_string" env:"EBT_STORAGE_CONNECTION_STRING"`
	SQLitePath       string `yaml:"sqlite_path" env:"EBT_SQLITE_PATH" env-default:"./data/ebt.db"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"EBT_HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis (хранилище сессий)
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"EBT_REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"EBT_REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"EBT_JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки брокера для очереди уведомлений.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"EBT_RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"notifications"`
	Queue      string        `yaml:"queue" env-default:"notifications.tasks"`
	RoutingKey string        `yaml:"routing_key" env-default:"tasks"`
}

// Notifier настройки доставки вебхуков.
type Notifier struct {
	Mode    string        `yaml:"mode" env:"EBT_NOTIFIER_MODE" env-default:"direct"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

// Stats настройки календаря статистики.
type Stats struct {
	Timezone string `yaml:"timezone" env:"EBT_TIMEZONE" env-default:"UTC"`
}

// RateLimit ограничение запросов на одного вызывающего.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"5"`
	Burst int     `yaml:"burst" env-default:"10"`
}

// Reminder расписание напоминаний о дедлайнах.
type Reminder struct {
	Cron    string        `yaml:"cron" env:"EBT_REMINDER_CRON" env-default:"0 9 * * *"`
	Horizon time.Duration `yaml:"horizon" env-default:"24h"`
}

// CORS разрешённые источники для браузерных клиентов.
type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"*"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// Load читает и проверяет конфиг из файла.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.ConnectionString == "" {
			return errors.New("storage.connection_string is required for postgres")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for sqlite")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Notifier.Mode {
	case NotifierDirect:
	case NotifierQueue:
		if c.RabbitMQ.URL == "" {
			return errors.New("rabbitmq.url is required for queue notifier")
		}
	default:
		return fmt.Errorf("unknown notifier mode %q", c.Notifier.Mode)
	}

	if c.JWTSecretKey == "" {
		return errors.New("jwttoken.jwt_secret_key is required")
	}
	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		return fmt.Errorf("stats.timezone: %w", err)
	}
	return nil
}

// Location возвращает часовой пояс статистики. Конфиг уже проверен, поэтому
// при ошибке возвращается UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  ConnectionString: %s\n"+
			"  SQLitePath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Notifier:\n"+
			"  Mode: %s\n"+
			"  Timeout: %s\n"+
			"Stats:\n"+
			"  Timezone: %s\n",
		c.Env,
		c.Storage.Driver,
		mask(c.Storage.ConnectionString),
		c.Storage.SQLitePath,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.Notifier.Mode,
		c.Notifier.Timeout,
		c.Stats.Timezone,
	)
}
