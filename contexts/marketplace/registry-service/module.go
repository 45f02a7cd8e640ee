package registryservice

import (
	"log/slog"

	httpadapter "curio/contexts/marketplace/registry-service/adapters/http"
	"curio/contexts/marketplace/registry-service/adapters/memory"
	"curio/contexts/marketplace/registry-service/application"
	"curio/contexts/marketplace/registry-service/ports"
)

// Module is the composition surface for the ownership registry.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repo   ports.Repository
	Gate   ports.AccessGate
	Clock  ports.Clock
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repo,
		Gate:   deps.Gate,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{Service: service, Logger: deps.Logger},
		Service: service,
	}
}

// NewInMemoryModule wires the registry against the in-memory store.
func NewInMemoryModule(gate ports.AccessGate, logger *slog.Logger) Module {
	store := NewStore()
	module := NewModule(Dependencies{
		Repo:   store,
		Gate:   gate,
		Clock:  store,
		Logger: logger,
	})
	module.Store = store
	return module
}

// NewStore exposes the memory adapter constructor for cross-module wiring.
func NewStore() *memory.Store {
	return memory.NewStore()
}
