package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"family-meal-planner/internal/auth"
	"family-meal-planner/internal/clipper"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/database"
	"family-meal-planner/internal/diner"
	"family-meal-planner/internal/family"
	"family-meal-planner/internal/llm"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/server"
	"family-meal-planner/internal/shopping"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx := context.Background()
	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to create AI client")
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}

	members := family.NewRepository(db.SQL)
	diners := diner.NewStore(db.SQL)
	plans := planner.NewRepository(db.SQL)
	lists := shopping.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)
	clip := clipper.NewClipper(textGen)

	lifecycle := planner.NewManager(plans, members, diners, textGen, clip, metricsStore)
	shoppingGen := shopping.NewGenerator(plans, diners, textGen, lists, metricsStore)
	jwtService := auth.NewJWTService(cfg.JWTSecret, "family-meal-planner")

	srv := server.NewServer(members, diners, lifecycle, shoppingGen, lists, metricsStore, jwtService, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: srv.Router(),
	}

	go func() {
		log.WithField("port", cfg.Port).Info("server starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
	}
}

func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if cfg.AIProvider == "groq" {
		return llm.NewGroqClient(cfg), nil
	}
	return llm.NewGeminiClient(ctx, cfg)
}
