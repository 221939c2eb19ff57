package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		ConnectTimeout int `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Tenants struct {
		Sewing struct {
			DSN string `env:"DSN,required"`
		} `envPrefix:"SEWING_"`
		Upholstery struct {
			DSN string `env:"DSN,required"`
		} `envPrefix:"UPHOLSTERY_"`
	} `envPrefix:"TENANT_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"86400"` // 1 天
		Issuer     string `env:"ISSUER" envDefault:"candidate-directory"`
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Password struct {
		BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`
	} `envPrefix:"PASSWORD_"`
	Geocode struct {
		BaseURL      string `env:"BASE_URL" envDefault:"https://api.postcodes.io"`
		Timeout      int    `env:"TIMEOUT_MS" envDefault:"2000"`
		BatchTimeout int    `env:"BATCH_TIMEOUT_MS" envDefault:"5000"`
		Concurrency  int    `env:"CONCURRENCY" envDefault:"8"`
		Cache        string `env:"CACHE" envDefault:"memory"` // memory, redis, none
		CacheSize    int    `env:"CACHE_SIZE" envDefault:"4096"`
		CacheTTL     int    `env:"CACHE_TTL" envDefault:"86400"`
	} `envPrefix:"GEOCODE_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"changeme123"`
		} `envPrefix:"USER_"`
		EmailDomain string `env:"EMAIL_DOMAIN" envDefault:"example.com"`
	} `envPrefix:"SEED_"`
	Email struct {
		SMTP struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host     string `env:"HOST" envDefault:"localhost"`
		Port     int    `env:"PORT" envDefault:"6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" envDefault:"0"`
	} `envPrefix:"REDIS_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok && len(aggErr.Errors) > 0 {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
