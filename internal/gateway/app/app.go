package app

import (
	"context"
	"fmt"

	"waypoint/internal/assistant"
	"waypoint/internal/assistant/infer"
	"waypoint/internal/assistant/ratelimit"
	"waypoint/internal/gateway/config"
	"waypoint/internal/gateway/handler"
	"waypoint/internal/gateway/server"
	"waypoint/internal/logstore"
	"waypoint/internal/retrieval"
)

type App struct {
	server  *server.Server
	limiter *ratelimit.Limiter
	store   logstore.Store
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Shared state and collaborators.
	guard := assistant.NewOriginGuard(cfg.Env, cfg.SiteURL)
	limiter := ratelimit.New(cfg.Assistant.RateWindow, cfg.Assistant.RateMax)
	limiter.StartSweeper(cfg.Assistant.SweepInterval)

	store, err := initLogStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	feed := logstore.NewFeed()
	logger := logstore.NewLogger(store, initArchive(cfg), feed)

	retriever, err := initRetrieval(cfg)
	if err != nil {
		return nil, err
	}
	generation, err := initGeneration(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pipeline := assistant.New(assistant.Config{
		MaxInputChars:       cfg.Assistant.MaxInputChars,
		ConfidenceThreshold: cfg.Assistant.ConfidenceThreshold,
		RetrievalThreshold:  cfg.Assistant.RetrievalThreshold,
	}, guard, limiter, retriever, infer.New(0), generation, logger)

	// Routing & server.
	mux := server.NewMux(guard,
		handler.NewAssistantHandler(pipeline),
		handler.NewWatchHandler(feed),
		handler.NewRecentHandler(store))
	srv := server.New(cfg.Port, mux)

	return &App{
		server:  srv,
		limiter: limiter,
		store:   store,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.limiter.Stop()
	err := a.server.Shutdown(ctx)
	if cerr := a.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func initRetrieval(cfg *config.Config) (assistant.Retrieval, error) {
	if cfg.Retrieval.BaseURL == "" {
		return retrieval.NewStaticRetriever(), nil
	}
	return retrieval.NewClient(cfg.Retrieval.BaseURL, cfg.Retrieval.CacheSize)
}
