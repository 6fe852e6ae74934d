package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/solarflow/solarflow/internal/agent"
	"github.com/solarflow/solarflow/internal/audit"
	"github.com/solarflow/solarflow/internal/config"
	"github.com/solarflow/solarflow/internal/formula"
	"github.com/solarflow/solarflow/internal/inference"
	"github.com/solarflow/solarflow/internal/memory"
	"github.com/solarflow/solarflow/internal/solar"
	"github.com/solarflow/solarflow/internal/tools"
	"github.com/solarflow/solarflow/internal/vectorstore"
	"github.com/solarflow/solarflow/internal/weather"
)

// app holds the wired pipeline for one process.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	evaluator *formula.Evaluator
	registry  *tools.Registry
	store     memory.Store
	engine    *agent.Engine
	audit     *audit.Logger
	stopModel func()
}

// buildApp wires configuration, collaborator clients, registries, stores,
// and the agent pipeline.
func buildApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	metricRegistry, err := formula.DefaultRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load metric registry: %w", err)
	}
	evaluator := formula.NewEvaluator(metricRegistry)

	weatherClient := weather.NewClient(weather.Config{
		BaseURL:         cfg.Weather.BaseURL,
		Timeout:         cfg.Weather.Timeout,
		RequestsPerHour: cfg.Weather.RequestsPerHour,
	})

	registry := tools.NewRegistry(log)
	var forecaster tools.ForecastProvider
	if weatherClient != nil {
		forecaster = weatherClient
	}
	if err := tools.RegisterBuiltins(registry, evaluator, forecaster); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	modelClient, stopModel := newModelClient(cfg.Model)

	searcher := vectorstore.NewClient(vectorstore.Config{
		BaseURL: cfg.VectorStore.BaseURL,
		Timeout: cfg.VectorStore.Timeout,
	})

	retriever := agent.NewRetriever(searcherOrNil(searcher), log)
	generator := agent.NewResponseGenerator(modelClient, log)
	insights := solar.NewInsights(evaluator, log)

	var provider agent.WeatherProvider
	if weatherClient != nil {
		provider = weatherClient
	}
	orchestrator := agent.NewOrchestrator(retriever, generator, provider, insights, store, log)
	engine := agent.NewEngine(modelClient, registry, orchestrator, nil, log)

	auditLogger, err := audit.NewLogger(filepath.Join(cfg.DataDir, "audit.db"))
	if err != nil {
		log.Warn().Err(err).Msg("audit log disabled")
		auditLogger = nil
	}

	return &app{
		cfg:       cfg,
		log:       log,
		evaluator: evaluator,
		registry:  registry,
		store:     store,
		engine:    engine,
		audit:     auditLogger,
		stopModel: stopModel,
	}, nil
}

// newModelClient returns the bare inference client, or a bounded worker
// pool in front of it when a pool size is configured.
func newModelClient(cfg config.ModelConfig) (agent.ModelClient, func()) {
	infConfig := &inference.Config{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Name,
		ContextSize: cfg.ContextSize,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}
	if cfg.PoolSize > 0 {
		pool := inference.NewPool(&inference.PoolConfig{
			Workers:         cfg.PoolSize,
			QueueSize:       256,
			MaxConcurrent:   cfg.PoolSize,
			InferenceConfig: infConfig,
		})
		return pool, func() { pool.Shutdown(10 * time.Second) }
	}
	return inference.NewClient(infConfig), func() {}
}

func openStore(cfg *config.Config, log zerolog.Logger) (memory.Store, error) {
	switch cfg.Memory.Backend {
	case "redis":
		store, err := memory.NewRedisStore(memory.RedisConfig{
			Addr:     cfg.Memory.RedisAddr,
			Password: cfg.Memory.RedisPassword,
			DB:       cfg.Memory.RedisDB,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis memory store: %w", err)
		}
		return store, nil
	default:
		store, err := memory.NewBadgerStore(memory.BadgerConfig{
			Path: filepath.Join(cfg.DataDir, "memory"),
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open memory store: %w", err)
		}
		return store, nil
	}
}

// searcherOrNil avoids storing a typed nil in the ContextSearcher
// interface when retrieval is disabled.
func searcherOrNil(c *vectorstore.Client) agent.ContextSearcher {
	if c == nil {
		return nil
	}
	return c
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.Close()
	}
	if a.stopModel != nil {
		a.stopModel()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.audit != nil {
		a.audit.Close()
	}
}
