package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/gemcert/internal/bootstrap"
	"anoa.com/gemcert/internal/config"
	"anoa.com/gemcert/internal/server"
	"anoa.com/gemcert/pkg/cache"
	"anoa.com/gemcert/pkg/database"
	"anoa.com/gemcert/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config depends on cfg, fall back to a development logger
		bootLog, _ := logger.New("development")
		bootLog.Fatal("failed to load config", "error", err)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	}, !cfg.IsProduction())
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}

	if err := bootstrap.Migrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if err := bootstrap.SeedAdmin(db, cfg.AdminUsername, cfg.AdminPassword, log); err != nil {
		log.Fatal("failed to seed admin user", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store cache.Store = cache.NewMemoryStore()
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := cache.ConnectRedis(connectCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", "error", err)
		} else {
			defer rdb.Close()
			store = cache.NewRedisStore(rdb, "gemcert:")
			log.Info("using redis cache")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.NewServer(cfg, db, store, registry, log)
	if err != nil {
		log.Fatal("failed to build server", "error", err)
	}

	if err := srv.Run(ctx); err != nil {
		log.Fatal("server exited with error", "error", err)
	}
}
