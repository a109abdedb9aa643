// Package app wires configuration, storage, the model provider, and the
// chat service into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aadhi-11/careerguide/db"
	"github.com/aadhi-11/careerguide/internal/ai"
	"github.com/aadhi-11/careerguide/internal/chat"
	"github.com/aadhi-11/careerguide/internal/config"
	"github.com/aadhi-11/careerguide/internal/session"
)

// App holds the assembled application dependencies.
type App struct {
	Config *config.Config
	Logger *slog.Logger
	Store  session.Store
	Chat   *chat.Service

	// Pool is nil when the in-memory store is active.
	Pool *pgxpool.Pool
}

// Setup builds the full dependency graph: store (Postgres with migrations
// applied, or in-memory for development), Gemini generator, chat service.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	var (
		store session.Store
		pool  *pgxpool.Pool
	)

	if cfg.MemoryStore {
		logger.Warn("using in-memory session store, conversations will not survive restarts")
		store = session.NewMemory(logger)
	} else {
		var err error
		pool, err = connectPool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		store = session.NewPostgres(pool, logger)
	}

	generator, err := ai.NewGemini(ctx, ai.Config{
		APIKey:      cfg.APIKey,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Logger:      logger,
	})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}

	svc, err := chat.New(chat.Config{
		Store:         store,
		Generator:     generator,
		Logger:        logger,
		HistoryWindow: cfg.HistoryWindow,
	})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Chat:   svc,
		Pool:   pool,
	}, nil
}

// Close releases application resources.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// connectPool runs migrations and opens the pgx connection pool.
func connectPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Fail fast if the database is unreachable.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}
