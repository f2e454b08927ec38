package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riddle-game-service/internal/app"
	"riddle-game-service/internal/config"
	"riddle-game-service/internal/domain"
	"riddle-game-service/internal/infra/memory"
	pgstore "riddle-game-service/internal/infra/postgres"
	rediscache "riddle-game-service/internal/infra/redis"
	transport "riddle-game-service/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the riddle game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	log := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		riddles     app.RiddleRepository
		adminRepo   app.RiddleAdminRepository
		players     app.PlayerRepository
		loader      rediscache.RiddleLoader
		invalidator app.CacheInvalidator
	)
	if pool != nil {
		store := pgstore.NewStore(pool)
		riddles, adminRepo, players, loader = store, store, store, store
	} else {
		log.Warn("no postgres url configured, using in-memory store with seed riddles")
		mem := memory.NewRiddleStore(seedRiddles()...)
		riddles, adminRepo, loader = mem, mem, mem
		players = memory.NewPlayerStore()
	}
	// Admin lookups bypass the cache so old categories are read fresh.
	uncached := riddles
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Game.CacheTTL, 10*time.Minute)
		cache := rediscache.NewRiddleCache(redisClient, loader, cacheTTL)
		riddles = cache
		invalidator = cache
	}

	hub := app.NewHub()
	game := app.NewGameService(riddles, players, cfg.Rules(), hub, log)
	admin := app.NewAdminService(adminRepo, uncached, invalidator, log)
	handler := transport.NewHandler(game, admin, cfg.Server.PlayURL, log)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting riddle game service", slog.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server...")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedRiddles keeps the standalone (no database) mode playable.
func seedRiddles() []domain.Riddle {
	return []domain.Riddle{
		{ID: 1, Question: "What has keys but can't open locks?", Answer: "PIANO", Category: "easy"},
		{ID: 2, Question: "What has to be broken before you can use it?", Answer: "EGG", Category: "easy"},
		{ID: 3, Question: "The more of this there is, the less you see. What is it?", Answer: "DARKNESS", Category: "hard",
			Explanation: "Darkness fills a space yet hides everything in it."},
	}
}
