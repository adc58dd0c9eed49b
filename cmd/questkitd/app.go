package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	mem "questkit/adapters/memory"
	redisAdapter "questkit/adapters/redis"
	sqlxAdapter "questkit/adapters/sqlx"
	wsAdapter "questkit/adapters/websocket"
	"questkit/catalog"
	"questkit/config"
	"questkit/engine"
	"questkit/integrations/webhook"
	"questkit/notify"
	"questkit/progression"
	"questkit/scheduler"
)

// App aggregates the assembled daemon components.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Hub       *notify.Hub
	Store     engine.Store
	Service   *engine.Service
	Scheduler *scheduler.Scheduler
	Server    *http.Server
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideHub() *notify.Hub {
	return notify.NewHub()
}

func provideStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (engine.Store, error) {
	return setupStorage(ctx, cfg, log)
}

func provideService(ctx context.Context, cfg *config.Config, log *slog.Logger, hub *notify.Hub, store engine.Store) (*engine.Service, error) {
	opts := []progression.Option{
		progression.WithStore(store),
		progression.WithNotifications(hub),
		progression.WithDispatchMode(engine.DispatchAsync),
		progression.WithLevelTable(cfg.Levels.Table()),
		progression.WithLogger(log),
	}

	var rewards engine.RewardCatalog
	if rc, ok := store.(engine.RewardCatalog); ok {
		rewards = rc
		opts = append(opts, progression.WithRewardCatalog(rc))
	}
	if cfg.Leaderboard.IndexEnabled {
		idx, err := redisAdapter.New(cfg.Leaderboard.Redis)
		if err != nil {
			return nil, fmt.Errorf("connecting leaderboard index: %w", err)
		}
		opts = append(opts, progression.WithLeaderboardIndex(idx))
	}
	if len(cfg.Webhook.Endpoints) > 0 {
		sink := webhook.New(cfg.Webhook.Endpoints,
			webhook.WithClient(&http.Client{Timeout: cfg.Webhook.Timeout}))
		opts = append(opts, progression.WithWebhooks(sink))
	}

	svc := progression.New(opts...)

	if err := catalog.Seed(ctx, store, rewards, log); err != nil {
		return nil, fmt.Errorf("seeding catalogs: %w", err)
	}
	return svc, nil
}

func provideScheduler(cfg *config.Config, log *slog.Logger, svc *engine.Service, store engine.Store) *scheduler.Scheduler {
	if !cfg.Scheduler.Enabled {
		return nil
	}
	return scheduler.New(svc, store, scheduler.Config{
		SweepInterval: cfg.Scheduler.SweepInterval,
		BatchSize:     cfg.Scheduler.BatchSize,
	}, log)
}

func provideServer(cfg *config.Config, hub *notify.Hub) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Delivery.Path, wsAdapter.Handler(hub))
	return &http.Server{
		Addr:    cfg.Delivery.Address,
		Handler: mux,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (engine.Store, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		log.Warn("file storage not yet implemented, using memory fallback", "path", cfg.Storage.File.Path)
		return mem.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
