package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/isaackogan/Live-Tok-Backend/internal/app"
	"github.com/isaackogan/Live-Tok-Backend/internal/config"
	"github.com/isaackogan/Live-Tok-Backend/internal/database"
	"github.com/isaackogan/Live-Tok-Backend/internal/giveaway"
	"github.com/isaackogan/Live-Tok-Backend/internal/live"
	"github.com/isaackogan/Live-Tok-Backend/internal/logging"
	"github.com/isaackogan/Live-Tok-Backend/internal/redis"
	"github.com/isaackogan/Live-Tok-Backend/internal/server"
	"github.com/isaackogan/Live-Tok-Backend/internal/tiktok"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return db
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, pool *live.Pool, engine *giveaway.Engine) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		pool.Stop()
		engine.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	db := setupDB(cfg)
	defer db.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	stats := database.NewStatisticsRepo(db)
	avatars := redis.NewAvatarCache(redisClient, cfg.AvatarTTL)
	archive := redis.NewResultArchive(redisClient, cfg.GiveawayResultTTL)
	authStore := redis.NewAuthStore(redisClient)
	profileCache := redis.NewProfileCache(redisClient, cfg.ProfileCacheTTL)

	engine := giveaway.NewEngine(archive, clock, cfg.SweepInterval)

	feed := tiktok.NewRelayFeed(cfg.RelayURL)
	profiles := tiktok.NewProfileClient(cfg.ProfileAPIURL, profileCache)

	xp := live.XPConfig{
		ChatMin:    cfg.ChatXPMin,
		ChatMax:    cfg.ChatXPMax,
		PerCoinMin: cfg.PerCoinXPMin,
		PerCoinMax: cfg.PerCoinXPMax,
	}
	pool := live.NewPool(feed, stats, avatars, engine, clock, xp, cfg.ConnectTimeout)

	appSvc := app.NewService(pool, engine, stats, avatars, archive, profiles)

	checks := map[string]server.HealthChecker{
		"postgres": db.Ping,
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	srv := server.NewServer(cfg, appSvc, authStore, checks)

	done := runGracefulShutdown(srv, pool, engine)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
