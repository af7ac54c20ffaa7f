package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Redis      RedisConfig      `yaml:"redis"`
	Paystack   PaystackConfig   `yaml:"paystack"`
	Cloudinary CloudinaryConfig `yaml:"cloudinary"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Enabled  bool          `yaml:"enabled"`
}

type PaystackConfig struct {
	SecretKey string        `yaml:"secret_key"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTLifetime time.Duration `yaml:"jwt_lifetime"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Enabled     bool   `yaml:"enabled"`
}

type ReconcilerConfig struct {
	Interval      time.Duration `yaml:"interval"`
	PendingMaxAge time.Duration `yaml:"pending_max_age"`
}

// Load reads the YAML config file and overlays environment variables.
// A missing file is not an error; env vars alone can configure the service.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:        "servicehub",
			Environment: "development",
			Version:     "dev",
		},
		HTTP: HTTPConfig{
			Port:           8080,
			RequestTimeout: 30 * time.Second,
		},
		Mongo: MongoConfig{
			Database: "servicehub",
			Timeout:  30 * time.Second,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
			TTL:     5 * time.Minute,
		},
		Paystack: PaystackConfig{
			BaseURL: "https://api.paystack.co",
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			JWTIssuer:   "servicehub",
			JWTLifetime: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		Reconciler: ReconcilerConfig{
			Interval:      5 * time.Minute,
			PendingMaxAge: 30 * time.Minute,
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.App.Environment, "APP_ENV")
	setInt(&cfg.HTTP.Port, "PORT")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DATABASE")
	setString(&cfg.Redis.Address, "REDIS_ADDRESS")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setBool(&cfg.Redis.Enabled, "REDIS_ENABLED")
	setString(&cfg.Paystack.SecretKey, "PAYSTACK_SECRET_KEY")
	setString(&cfg.Paystack.BaseURL, "PAYSTACK_BASE_URL")
	setString(&cfg.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&cfg.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	setString(&cfg.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setInt64(&cfg.Telegram.AdminChatID, "TELEGRAM_ADMIN_CHAT_ID")
	setBool(&cfg.Telegram.Enabled, "TELEGRAM_ENABLED")
}

func (c *Config) validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri (MONGO_URI) is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			*dst = parsed
		}
	}
}
