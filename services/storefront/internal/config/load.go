package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/Skotchmaster/liontv_shop/pkg/config"
)

type ServiceConfig struct {
	config.Config

	OwnerOpenID    string
	AppID          string
	OAuthServerURL string

	CheckoutRateLimit  int64
	CheckoutRateWindow time.Duration

	KafkaNotifyTopic string

	RabbitMQURL      string
	RabbitMQExchange string

	TelegramBotToken    string
	TelegramOwnerChatID int64

	NotifyQueueSize int

	CSRFEnabled bool
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "storefront"
	}

	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	config.MustOneOf(cfg.DatabaseDriver, "DATABASE_DRIVER", "pgx", "pq")

	return ServiceConfig{
		Config: cfg,

		OwnerOpenID:    os.Getenv("OWNER_OPEN_ID"),
		AppID:          os.Getenv("APP_ID"),
		OAuthServerURL: os.Getenv("OAUTH_SERVER_URL"),

		CheckoutRateLimit:  config.EnvInt64Default("CHECKOUT_RATE_LIMIT", 10),
		CheckoutRateWindow: rateWindow(config.EnvDurationDefault("CHECKOUT_RATE_WINDOW", time.Minute)),

		KafkaNotifyTopic: config.EnvDefault("KAFKA_NOTIFY_TOPIC", "order_events"),

		RabbitMQURL:      os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange: config.EnvDefault("RABBITMQ_EXCHANGE", "order.exchange"),

		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramOwnerChatID: chatID(os.Getenv("TELEGRAM_OWNER_CHAT_ID")),

		NotifyQueueSize: config.EnvIntDefault("NOTIFY_QUEUE_SIZE", 64),

		CSRFEnabled: config.EnvBoolDefault("CSRF_ENABLED", true),
	}
}

// rateWindow raises sub-second windows to one second; the limiter keys
// its buckets by window.
func rateWindow(d time.Duration) time.Duration {
	if d < time.Second {
		slog.Warn("config_warning", "env", "CHECKOUT_RATE_WINDOW", "value", d.String(), "using", time.Second.String())
		return time.Second
	}
	return d
}

func chatID(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
