package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/khanzele16/berri-market-backend/internal/config"
	"github.com/khanzele16/berri-market-backend/internal/notification"
	"github.com/khanzele16/berri-market-backend/internal/user"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notifier").Logger()

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if len(cfg.KafkaBrokers) == 0 {
		panic("KAFKA_BROKERS is not set")
	}
	if cfg.TelegramBotToken == "" {
		panic("TELEGRAM_BOT_TOKEN is not set")
	}

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()

	userService := user.NewService(user.NewPostgresRepository(db))
	sender := notification.NewTelegramSender(cfg.TelegramBotToken)
	notifier := notification.NewNotifier(userService, sender, cfg.SellerShare)

	consumer := notification.NewConsumer(cfg.KafkaBrokers, "berri-notifier", notifier)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Strs("brokers", cfg.KafkaBrokers).Msg("notifier started")
	if err := consumer.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("consumer stopped")
		os.Exit(1)
	}
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}
