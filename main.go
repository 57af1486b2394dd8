package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamecatalog/auth"
	"gamecatalog/catalog"
	"gamecatalog/config"
	"gamecatalog/handlers"
	"gamecatalog/store"
	"gamecatalog/utils"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Can't load config")
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Can't set up logger")
	}
	logger.WithField("environment", cfg.AppEnv).Info("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	var sessions auth.SessionStore
	if cfg.RedisURL != "" {
		redisPool, err := utils.OpenRedisPool(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to redis")
		}
		defer redisPool.Close()
		sessions = utils.NewRedisSessionStore(redisPool)
	} else {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		sessions = utils.NewMemorySessionStore()
	}

	render, err := handlers.NewRenderer(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load templates")
	}
	manager := auth.NewManager(sessions, db, logger, auth.Options{
		TTL:          cfg.SessionTTL,
		SecureCookie: cfg.CookieSecure,
		Forbidden:    render.Forbidden,
	})
	svc := catalog.NewService(db, logger, cfg.BcryptCost)
	h := handlers.New(svc, manager, render, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h.Router(cfg.CookieSecure),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown failed")
		}
	}()

	logger.WithField("addr", cfg.Addr).Info("Starting server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("Server failed")
	}
}
