// Package config loads the service configuration.
//
// Configuration is read from a YAML file (CONFIG_PATH, default config.yaml)
// with ${VAR} expansion. When the file does not exist every value comes from
// environment variables instead. A .env file, if present, is loaded into the
// environment first.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	AdminEmail    string        `yaml:"admin_email"`
	AdminPassword string        `yaml:"admin_password"`
}

type PricingConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type UploadsConfig struct {
	Dir         string `yaml:"dir"`
	MaxBytes    int64  `yaml:"max_bytes"`
	ThumbWidth  int    `yaml:"thumb_width"`
	ThumbHeight int    `yaml:"thumb_height"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	WarmupSpec string        `yaml:"warmup_spec"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Load reads and parses the config file, then fills unset values with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:           os.Getenv("PORT"),
			AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
			RateLimit:      getEnvFloat("RATE_LIMIT", 0),
			RateBurst:      getEnvInt("RATE_BURST", 0),
		},
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			Name:     os.Getenv("DB_NAME"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   os.Getenv("KAFKA_TOPIC"),
			GroupID: os.Getenv("KAFKA_GROUP_ID"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      getEnvDuration("TOKEN_TTL", 0),
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Pricing: PricingConfig{
			SessionTTL: getEnvDuration("PRICING_SESSION_TTL", 0),
		},
		Uploads: UploadsConfig{
			Dir:         os.Getenv("UPLOAD_DIR"),
			MaxBytes:    int64(getEnvInt("UPLOAD_MAX_BYTES", 0)),
			ThumbWidth:  getEnvInt("UPLOAD_THUMB_WIDTH", 0),
			ThumbHeight: getEnvInt("UPLOAD_THUMB_HEIGHT", 0),
		},
		Cache: CacheConfig{
			TTL:        getEnvDuration("CACHE_TTL", 0),
			WarmupSpec: os.Getenv("CACHE_WARMUP_SPEC"),
		},
		Logging: LoggingConfig{
			Level:      os.Getenv("LOG_LEVEL"),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 0),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 0),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 0),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv loads .env (if any), then the config file at CONFIG_PATH, falling
// back to the environment when the file is missing.
func LoadOrEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := getEnv("CONFIG_PATH", "config.yaml")
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return LoadFromEnv(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Port, "8080")
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = 10
	}
	if c.Server.RateBurst <= 0 {
		c.Server.RateBurst = 20
	}

	setDefault(&c.Database.Host, "127.0.0.1")
	setDefault(&c.Database.Port, "3306")
	setDefault(&c.Database.User, "root")
	setDefault(&c.Database.Name, "bookstore")

	setDefault(&c.Redis.Addr, "localhost:6379")

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	setDefault(&c.Kafka.Topic, "book-topic")
	setDefault(&c.Kafka.GroupID, "bookstore-service-group")

	setDefault(&c.Auth.JWTSecret, "secret")
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Pricing.SessionTTL <= 0 {
		c.Pricing.SessionTTL = 30 * time.Minute
	}

	setDefault(&c.Uploads.Dir, "uploads")
	if c.Uploads.MaxBytes <= 0 {
		c.Uploads.MaxBytes = 5 << 20
	}
	if c.Uploads.ThumbWidth <= 0 {
		c.Uploads.ThumbWidth = 320
	}
	if c.Uploads.ThumbHeight <= 0 {
		c.Uploads.ThumbHeight = 480
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = 10 * time.Minute
	}
	setDefault(&c.Cache.WarmupSpec, "@every 5m")

	setDefault(&c.Logging.Level, "info")
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 28
	}
}

// DSN returns the MySQL data source name.
func (d DatabaseConfig) DSN() string {
	c := mysql.NewConfig()
	c.User = d.User
	c.Passwd = d.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(d.Host, d.Port)
	c.DBName = d.Name
	c.ParseTime = true
	return c.FormatDSN()
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
