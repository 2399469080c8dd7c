package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string

	JWTSecret string

	YooKassaShopID    string
	YooKassaSecretKey string
	PaymentReturnURL  string

	KafkaBrokers []string
	RedisAddr    string

	// SellerShare is the fraction of each seller group paid out at
	// settlement; the rest stays with the platform.
	SellerShare   float64
	PayoutTimeout time.Duration

	MinOrderAmount    float64
	CommissionPercent int

	TelegramBotToken string
}

func Load() Config {
	cfg := Config{
		Addr:              getenv("BERRI_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		YooKassaShopID:    os.Getenv("YOOKASSA_SHOP_ID"),
		YooKassaSecretKey: os.Getenv("YOOKASSA_SECRET_KEY"),
		PaymentReturnURL:  getenv("PAYMENT_RETURN_URL", "https://t.me/berri_market_bot"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		SellerShare:       getenvFloat("SELLER_SHARE", 0.90),
		PayoutTimeout:     getenvDuration("PAYOUT_TIMEOUT", 30*time.Second),
		MinOrderAmount:    getenvFloat("MIN_ORDER_AMOUNT", 60),
		CommissionPercent: getenvInt("COMMISSION_PERCENT", 10),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitCSV(brokers)
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitCSV(s string) []string {
	parts := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
