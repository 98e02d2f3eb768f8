package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Telegram  TelegramConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	Schema         string
	MaxOpenConns   int
	ConnectRetries uint64
}

// DSN builds the pgx connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret       string
	AccessExpiry int // in minutes
}

// AdminConfig identifies the single administrator
type AdminConfig struct {
	TelegramID   int64
	PasswordHash string
}

type TelegramConfig struct {
	Token       string
	PollTimeout int // in seconds
	Workers     int
	Debug       bool
}

// Enabled reports whether the chat front end should run
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether order events are published to Kafka
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Set defaults
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_EXPIRY", 60)
	v.SetDefault("TELEGRAM_POLL_TIMEOUT", 30)
	v.SetDefault("TELEGRAM_WORKERS", 8)
	v.SetDefault("KAFKA_TOPIC", "orders.placed")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Missing .env is fine, defaults and environment still apply
	_ = v.ReadInConfig()

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:           v.GetString("DB_HOST"),
			Port:           v.GetString("DB_PORT"),
			User:           v.GetString("DB_USER"),
			Password:       v.GetString("DB_PASSWORD"),
			Database:       v.GetString("DB_DATABASE"),
			Schema:         v.GetString("DB_SCHEMA"),
			MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnectRetries: v.GetUint64("DB_CONNECT_RETRIES"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			AccessExpiry: v.GetInt("JWT_ACCESS_EXPIRY"),
		},
		Admin: AdminConfig{
			TelegramID:   v.GetInt64("ADMIN_TELEGRAM_ID"),
			PasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		},
		Telegram: TelegramConfig{
			Token:       v.GetString("TELEGRAM_TOKEN"),
			PollTimeout: v.GetInt("TELEGRAM_POLL_TIMEOUT"),
			Workers:     v.GetInt("TELEGRAM_WORKERS"),
			Debug:       v.GetBool("TELEGRAM_DEBUG"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Window:   v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
	}
}

// Validate checks the settings the HTTP server cannot run without
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Admin.TelegramID == 0 {
		errs = append(errs, errors.New("ADMIN_TELEGRAM_ID is required"))
	}
	if c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD_HASH is required"))
	}
	if c.Database.User == "" || c.Database.Database == "" {
		errs = append(errs, errors.New("DB_USER and DB_DATABASE are required"))
	}
	return errors.Join(errs...)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
