// Package config loads process configuration from environment variables.
package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"Lee_Gateway/internal/pkg"
)

type Config struct {
	HTTPAddr string `env:"GATEWAY_HTTP_ADDR" envDefault:":8080"`
	LogLevel string `env:"GATEWAY_LOG_LEVEL" envDefault:"info"`

	MySQLDSN string `env:"GATEWAY_MYSQL_DSN" envDefault:"user:password@tcp(127.0.0.1:3306)/community?charset=utf8mb4&parseTime=True"`

	RedisAddr     string `env:"GATEWAY_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"GATEWAY_REDIS_PASSWORD"`
	RedisDB       int    `env:"GATEWAY_REDIS_DB" envDefault:"0"`

	// 为空时不投递事件
	KafkaBrokers []string `env:"GATEWAY_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"GATEWAY_KAFKA_TOPIC" envDefault:"community-events"`

	SMTPHost     string `env:"GATEWAY_SMTP_HOST" envDefault:"smtp.qq.com"`
	SMTPPort     int    `env:"GATEWAY_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"GATEWAY_SMTP_USERNAME"`
	SMTPPassword string `env:"GATEWAY_SMTP_PASSWORD"`
	SMTPFrom     string `env:"GATEWAY_SMTP_FROM" envDefault:"NoReply <no-reply@example.com>"`

	JWTSecret string        `env:"GATEWAY_JWT_SECRET,required"`
	JWTIssuer string        `env:"GATEWAY_JWT_ISSUER" envDefault:"lee-gateway"`
	JWTTTL    time.Duration `env:"GATEWAY_JWT_TTL" envDefault:"24h"`

	// worker 数同时作为 MySQL 连接池上限
	PoolSize         int           `env:"GATEWAY_POOL_SIZE" envDefault:"16"`
	PoolQueueTimeout time.Duration `env:"GATEWAY_POOL_QUEUE_TIMEOUT" envDefault:"5s"`
}

// Load 解析环境变量并做基本校验
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PoolSize <= 0 {
		return errors.Errorf("GATEWAY_POOL_SIZE must be positive, got %d", c.PoolSize)
	}
	if c.JWTTTL <= 0 {
		return errors.Errorf("GATEWAY_JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("GATEWAY_JWT_SECRET must be at least 16 bytes")
	}
	return nil
}

func (c Config) SMTP() pkg.SMTPConfig {
	return pkg.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}
}

// Kafka ok=false 表示未配置 broker
func (c Config) Kafka() (cfg pkg.KafkaConfig, ok bool) {
	brokers := make([]string, 0, len(c.KafkaBrokers))
	for _, b := range c.KafkaBrokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return pkg.KafkaConfig{Brokers: brokers, Topic: c.KafkaTopic}, len(brokers) > 0
}
