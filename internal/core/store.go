package core

import (
	"github.com/kuhu42/solar-back-sub001/internal/infra/persistence/memory"
	"github.com/kuhu42/solar-back-sub001/pkg/domain"
)

// NewMemoryStore constructs an in-memory store evaluating the given rules.
func NewMemoryStore(engine *domain.RulesEngine) *memory.Store {
	return memory.NewStore(engine)
}
