package accessgate

import (
	"curio/contexts/identity-access/access-gate/adapters/memory"
	"curio/contexts/identity-access/access-gate/ports"
)

// Module exposes the access gate capability to other contexts.
type Module struct {
	Gate ports.Gate
}

// NewStaticModule builds a gate with a single configured administrator.
func NewStaticModule(adminAccountID string) Module {
	return Module{Gate: memory.NewStaticGate(adminAccountID)}
}
