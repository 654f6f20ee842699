// Package config предоставялет структуры и функции для парсинга и загрузки конфига
// всех сервисов: API, воркера напоминаний и отправителя уведомлений.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Temporal                `yaml:"temporal"`
	Reminder                `yaml:"reminder"`
	Worker                  `yaml:"worker"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
	// RateLimit допустимое число запросов в секунду с одного адреса.
	RateLimit float64 `yaml:"rate_limit" env-default:"5"`
	RateBurst int     `yaml:"rate_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress      string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword     string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser         string        `yaml:"user"`
	RedisDB           int           `yaml:"db"`
	RedisMaxRetries   int           `yaml:"max_retries"`
	RedisDialTimeout  time.Duration `yaml:"dial_timeout"`
	RedisTimeoutRedis time.Duration `yaml:"timeoutredis"`
	// CacheTTL время жизни подписки в кеше.
	CacheTTL time.Duration `yaml:"cache_ttl" env-default:"1h"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ настройки подключения к брокеру сообщений.
type RabbitMQ struct {
	RabbitMQURL          string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries   int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay   time.Duration `yaml:"retry_delay" env-default:"2s"`
	// RabbitMQRequeueDelay пауза перед возвратом сообщения в очередь после ошибки обработки.
	RabbitMQRequeueDelay time.Duration `yaml:"requeue_delay" env-default:"10s"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
	// SMTPFrom адрес отправителя, по умолчанию совпадает с SMTPUser.
	SMTPFrom string `yaml:"from" env:"SMTP_FROM"`
	// SMTPTLSMode starttls, implicit или none.
	SMTPTLSMode string        `yaml:"tls" env:"SMTP_TLS" env-default:"starttls"`
	SMTPTimeout time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"10s"`
}

// Temporal настройки подключения к движку долговременного выполнения.
type Temporal struct {
	TemporalHostPort  string `yaml:"host_port" env:"TEMPORAL_HOST_PORT" env-default:"localhost:7233"`
	TemporalNamespace string `yaml:"namespace" env:"TEMPORAL_NAMESPACE" env-default:"default"`
	TemporalTaskQueue string `yaml:"task_queue" env:"TEMPORAL_TASK_QUEUE" env-default:"subscription-reminders"`
}

// Reminder настройки процесса напоминаний о продлении.
type Reminder struct {
	// LeadDays за сколько дней до продления отправлять напоминания, по убыванию.
	LeadDays []int `yaml:"lead_days" env:"REMINDER_LEAD_DAYS" env-default:"7,5,2,1"`
	// UpcomingWindowDays окно для выборки ближайших продлений.
	UpcomingWindowDays int    `yaml:"upcoming_window_days" env-default:"7"`
	ClientURL          string `yaml:"client_url" env:"CLIENT_URL" env-default:"https://subdub.example.com"`
}

// Worker адреса служебных эндпоинтов воркера.
type Worker struct {
	GRPCHealthAddress string `yaml:"grpc_health_address" env-default:":9090"`
	MetricsAddress    string `yaml:"metrics_address" env-default:":9091"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH, завершает процесс при ошибке
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

// Load читает конфиг из файла и проверяет обязательные значения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.LeadDays) == 0 {
		return errors.New("reminder.lead_days must not be empty")
	}
	for _, d := range c.LeadDays {
		if d <= 0 {
			return fmt.Errorf("reminder.lead_days contains non-positive value %d", d)
		}
	}
	return nil
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
			"StorageConnectionString: %s\n"+
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
			"RabbitMQ: %s\n"+
			"SMTP: %s:%s user=%s tls=%s\n"+
			"Temporal: %s namespace=%s queue=%s\n"+
			"Reminder: lead_days=%v\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.RedisAddress,
		mask(c.RedisPassword),
		c.RedisDB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		mask(c.RabbitMQURL),
		c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPTLSMode,
		c.TemporalHostPort, c.TemporalNamespace, c.TemporalTaskQueue,
		c.LeadDays,
	)
}
