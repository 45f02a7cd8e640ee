package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	accessgate "curio/contexts/identity-access/access-gate"
	ledgerservice "curio/contexts/marketplace/ledger-service"
	ledgerpostgres "curio/contexts/marketplace/ledger-service/adapters/postgres"
	workerapp "curio/contexts/marketplace/ledger-service/application/workers"
	"curio/contexts/marketplace/ledger-service/domain/entities"
	registryservice "curio/contexts/marketplace/registry-service"
	registrypostgres "curio/contexts/marketplace/registry-service/adapters/postgres"
	"curio/internal/platform/config"
	"curio/internal/platform/db"
	"curio/internal/platform/httpserver"
	"curio/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workerapp.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	params := entities.LedgerParams{
		MintPrice: cfg.MintPriceAmount(),
		MaxSupply: cfg.MaxSupply,
	}
	gate := accessgate.NewStaticModule(cfg.AdminAccountID)

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		// Developer mode: no Postgres configured, run everything in memory.
		logger.Warn("POSTGRES_DSN is empty, running with in-memory stores",
			"event", "bootstrap_memory_mode",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		registryModule := registryservice.NewInMemoryModule(gate.Gate, logger)
		ledgerModule := ledgerservice.NewInMemoryModule(params, registryModule.Service, gate.Gate, logger)
		server := httpserver.New(ledgerModule, registryModule, logger, normalizeAddr(cfg.HTTPPort))
		return &APIApp{server: server, logger: logger}, nil
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	registryRepo := registrypostgres.NewRepository(pg.DB)
	registryModule := registryservice.NewModule(registryservice.Dependencies{
		Repo:   registryRepo,
		Gate:   gate.Gate,
		Clock:  registryRepo,
		Logger: logger,
	})

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, registryModule.Service, params, logger)
	ledgerModule := ledgerservice.NewModule(ledgerservice.Dependencies{
		Repo:           ledgerRepo,
		Registry:       registryModule.Service,
		Gate:           gate.Gate,
		Idempotency:    ledgerRepo,
		Clock:          ledgerpostgres.SystemClock{},
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})

	server := httpserver.New(ledgerModule, registryModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	params := entities.LedgerParams{
		MintPrice: cfg.MintPriceAmount(),
		MaxSupply: cfg.MaxSupply,
	}
	registryRepo := registrypostgres.NewRepository(pg.DB)
	registryModule := registryservice.NewModule(registryservice.Dependencies{
		Repo:   registryRepo,
		Gate:   accessgate.NewStaticModule(cfg.AdminAccountID).Gate,
		Clock:  registryRepo,
		Logger: logger,
	})
	repo := ledgerpostgres.NewRepository(pg.DB, registryModule.Service, params, logger)

	return &WorkerApp{
		postgres: pg,
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			Topic:     "marketplace.ledger",
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
