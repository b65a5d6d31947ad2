// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
	HTTPServer              `yaml:"http_server"`
	AdminAuth               `yaml:"admin_auth"`
	Telegram                `yaml:"telegram"`
	Moex                    `yaml:"moex"`
	Access                  `yaml:"access"`
	Payments                `yaml:"payments"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"10s"`
}

// RabbitMQ структура для настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitConnection string        `yaml:"connection"`
	ConnectRetries   int           `yaml:"connect_retries" env-default:"5"`
	RetryDelay       time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// AdminAuth структура для проверки административных токенов
type AdminAuth struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура для клиента Bot API: бан, разбан, инвайт-ссылки
// и доставка сообщений
type Telegram struct {
	Token           string        `yaml:"token"`
	APIAddress      string        `yaml:"api_address" env-default:"https://api.telegram.org"`
	ChannelID       int64         `yaml:"channel_id"`
	AdminChatID     int64         `yaml:"admin_chat_id"`
	TimeoutTelegram time.Duration `yaml:"timeout" env-default:"10s"`
}

// Moex структура для клиента MOEX AlgoPack
type Moex struct {
	MoexToken       string        `yaml:"token"`
	MoexAPIAddress  string        `yaml:"api_address" env-default:"https://apim.moex.com"`
	TimeoutMoex     time.Duration `yaml:"timeout" env-default:"10s"`
	CheckInterval   time.Duration `yaml:"check_interval" env-default:"60s"`
	FreshnessWindow time.Duration `yaml:"freshness_window" env-default:"1h"`
}

// Access структура с параметрами жизненного цикла доступа
type Access struct {
	TrialPeriod   time.Duration `yaml:"trial_period" env-default:"24h"`
	GrantDays     int           `yaml:"grant_days" env-default:"30"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"60s"`
}

// Payments структура с реквизитами ручной оплаты
type Payments struct {
	Amount int    `yaml:"amount" env-default:"100"`
	Phone  string `yaml:"phone"`
}

// MustLoad загружает конфиг по пути из CONFIG_PATH, при ошибке завершает процесс
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
