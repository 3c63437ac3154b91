package main

import (
	"context"
	"os/signal"
	"syscall"

	"family-meal-planner/internal/config"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shopping"
	"family-meal-planner/internal/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if cfg.TelegramOwnerEmail == "" {
		log.Fatal("TELEGRAM_OWNER_EMAIL environment variable not set")
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	members := family.NewRepository(db.SQL)
	owner, err := members.GetUserByEmail(ctx, cfg.TelegramOwnerEmail)
	if err != nil {
		log.WithError(err).Fatal("telegram owner account not found")
	}

	bot, err := telegram.NewBot(
		cfg.TelegramBotToken,
		planner.NewRepository(db.SQL),
		diner.NewStore(db.SQL),
		shopping.NewRepository(db.SQL),
		owner.ID,
		cfg.TelegramAllowChat,
		log,
	)
	if err != nil {
		log.WithError(err).Fatal("failed to start telegram bot")
	}

	log.Info("telegram bot running")
	bot.Run(ctx)
}
