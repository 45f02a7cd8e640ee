package ledgerservice

import (
	"log/slog"
	"time"

	httpadapter "curio/contexts/marketplace/ledger-service/adapters/http"
	"curio/contexts/marketplace/ledger-service/adapters/memory"
	"curio/contexts/marketplace/ledger-service/application"
	"curio/contexts/marketplace/ledger-service/domain/entities"
	"curio/contexts/marketplace/ledger-service/ports"
)

// Module is the composition surface for the marketplace ledger.
// Runtime wiring should consume Handler; Store is exposed for tests/inspection.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo           ports.Repository
	Registry       ports.OwnershipRegistry
	Gate           ports.AccessGate
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// NewModule wires the ledger use-cases against explicit ports.
func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:           deps.Repo,
		Registry:       deps.Registry,
		Gate:           deps.Gate,
		Idempotency:    deps.Idempotency,
		Clock:          deps.Clock,
		Logger:         deps.Logger,
		IdempotencyTTL: deps.IdempotencyTTL,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires the ledger against in-memory adapters. This is the
// developer/test bootstrap path; production wiring uses the Postgres adapters.
func NewInMemoryModule(
	params entities.LedgerParams,
	registry ports.OwnershipRegistry,
	gate ports.AccessGate,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(params, registry)
	module := NewModule(Dependencies{
		Repo:           store,
		Registry:       registry,
		Gate:           gate,
		Idempotency:    store,
		Clock:          store,
		IdempotencyTTL: 7 * 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
