package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN         string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL         string `env:"RABBITMQ_URL,required=true"`
	RedisURL            string `env:"REDIS_URL,required=true"`
	CRMAPIKey           string `env:"CRM_API_KEY"`
	DesktopPushURL      string `env:"DESKTOP_PUSH_URL"`
	PushChannel         string `env:"PUSH_CHANNEL,default=leads.inserted"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS,default=15"`
	ToastTTLSeconds     int    `env:"TOAST_TTL_SECONDS,default=8"`
	NotificationCap     int    `env:"NOTIFICATION_CAP,default=50"`
	IngestRatePerSec    int    `env:"INGEST_RATE_PER_SEC,default=25"`
	APIPort             int    `env:"API_PORT,default=8080"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
