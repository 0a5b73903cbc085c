// Package app wires the application together: configuration, logging,
// tracing, the database pool, the Gemini client, and the query system.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
	"google.golang.org/genai"

	"github.com/lectern0/lectern/db"
	"github.com/lectern0/lectern/internal/config"
	"github.com/lectern0/lectern/internal/log"
	"github.com/lectern0/lectern/internal/observability"
	"github.com/lectern0/lectern/internal/rag"
	"github.com/lectern0/lectern/internal/search"
	"github.com/lectern0/lectern/internal/session"
	"github.com/lectern0/lectern/internal/tool"
)

// App is the application container. Call Close to release resources.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DBPool   *pgxpool.Pool
	Store    *search.Store
	Sessions *session.Store
	System   *rag.System

	otelCleanup func()
}

// Setup initializes every component from the validated configuration.
// On failure everything initialized so far is released before returning.
func Setup(ctx context.Context, cfg *config.Config) (_ *App, retErr error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.New(log.Config{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", slog.Any("error", err))
			}
		}
	}()

	a.otelCleanup = provideOtelShutdown(ctx, cfg, logger)

	pool, err := provideDBPool(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.DBPool = pool

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GEMINI_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	embedder, err := search.NewGeminiEmbedder(client.Models, cfg.EmbedderModel)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	store, err := search.New(pool, embedder, cfg.MaxResults, logger)
	if err != nil {
		return nil, fmt.Errorf("creating search store: %w", err)
	}
	a.Store = store

	registry := tool.NewRegistry(logger)
	registry.Register(tool.NewCourseSearchTool(store, logger))

	generator := rag.NewGenerator(client.Models, cfg.ModelName, cfg.Temperature, int32(cfg.MaxTokens), logger)

	a.Sessions = session.NewStore(cfg.MaxHistory, logger)
	a.System = rag.NewSystem(generator, a.Sessions, registry, logger)

	return a, nil
}

// Close releases all resources in reverse initialization order.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

// provideOtelShutdown sets up trace export. A setup failure disables
// tracing instead of failing startup.
func provideOtelShutdown(ctx context.Context, cfg *config.Config, logger *slog.Logger) func() {
	shutdown, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
	}, logger)
	if err != nil {
		logger.Warn("setting up tracing, continuing without it", slog.Any("error", err))
		return func() {}
	}
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("shutting down tracer provider", slog.Any("error", err))
		}
	}
}

// provideDBPool runs migrations and opens the connection pool with
// pgvector types registered on every connection.
func provideDBPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
