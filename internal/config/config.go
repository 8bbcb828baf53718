package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	StateBackend string `mapstructure:"STATE_BACKEND"`

	MySQLDSN      string `mapstructure:"MYSQL_DSN"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	TelegramDebug bool   `mapstructure:"TELEGRAM_DEBUG"`

	WorkerCount      int           `mapstructure:"WORKER_COUNT"`
	QueueSize        int           `mapstructure:"QUEUE_SIZE"`
	LockTTL          time.Duration `mapstructure:"LOCK_TTL"`
	LockWait         time.Duration `mapstructure:"LOCK_WAIT"`
	OperationTimeout time.Duration `mapstructure:"OPERATION_TIMEOUT"`
}

var defaults = map[string]any{
	"ENV":               "development",
	"LOG_LEVEL":         "info",
	"HTTP_ADDR":         ":8080",
	"STORE_BACKEND":     BackendMemory,
	"STATE_BACKEND":     BackendMemory,
	"MYSQL_DSN":         "root:root@tcp(localhost:3306)/accommodator?parseTime=true",
	"REDIS_ADDR":        "localhost:6379",
	"REDIS_PASSWORD":    "",
	"REDIS_DB":          0,
	"TELEGRAM_TOKEN":    "",
	"TELEGRAM_DEBUG":    false,
	"WORKER_COUNT":      10,
	"QUEUE_SIZE":        1000,
	"LOCK_TTL":          "10s",
	"LOCK_WAIT":         "5s",
	"OPERATION_TIMEOUT": "5s",
}

// Load reads config.yaml from the working directory or ./config when present,
// then lets environment variables override every key.
func Load(configFile string) (Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendMySQL:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendMySQL, c.StoreBackend)
	}
	switch c.StateBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.StateBackend)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be >= 1")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("QUEUE_SIZE must be >= 1")
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("OPERATION_TIMEOUT must be positive")
	}
	if c.StateBackend == BackendRedis && c.LockTTL <= c.OperationTimeout {
		return fmt.Errorf("LOCK_TTL (%s) must exceed OPERATION_TIMEOUT (%s)", c.LockTTL, c.OperationTimeout)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(c.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	return logger
}
