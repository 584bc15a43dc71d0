package strategy

import (
	"sync"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
)

// RoundRobin hands out one provider per call, cycling independently per category.
type RoundRobin struct {
	mu      sync.Mutex
	cursors map[models.Category]int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{cursors: make(map[models.Category]int)}
}

func (*RoundRobin) Name() string { return NameRoundRobin }

func (r *RoundRobin) Select(category models.Category, providers []repository.Provider) []repository.Provider {
	if len(providers) == 0 {
		return nil
	}

	r.mu.Lock()
	idx := r.cursors[category]
	if idx >= len(providers) {
		idx = 0
	}
	r.cursors[category] = (idx + 1) % len(providers)
	r.mu.Unlock()

	return []repository.Provider{providers[idx]}
}
