package strategy

import (
	"math/rand"
	"sync"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
)

const (
	defaultWeight = 1.0
	minWeight     = 0.05
)

// WeightedRandomOption configures WeightedRandom.
type WeightedRandomOption func(*WeightedRandom)

// WithHealthSource weights providers by their rolling success rate.
func WithHealthSource(h HealthSource) WeightedRandomOption {
	return func(w *WeightedRandom) {
		w.health = h
	}
}

// WithSeed fixes the random source.
func WithSeed(seed int64) WeightedRandomOption {
	return func(w *WeightedRandom) {
		w.rnd = rand.New(rand.NewSource(seed))
	}
}

// WeightedRandom picks one provider at random, weighted by success rate.
// Providers without history weigh 1.0 and no provider weighs less than 0.05,
// so a failing provider is still sampled now and then. Without a health
// source the pick is uniform.
type WeightedRandom struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	health HealthSource
}

func NewWeightedRandom(opts ...WeightedRandomOption) *WeightedRandom {
	w := &WeightedRandom{}
	for _, opt := range opts {
		opt(w)
	}
	if w.rnd == nil {
		w.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return w
}

func (*WeightedRandom) Name() string { return NameWeightedRandom }

func (w *WeightedRandom) Select(_ models.Category, providers []repository.Provider) []repository.Provider {
	if len(providers) == 0 {
		return nil
	}

	weights := make([]float64, len(providers))
	var total float64
	for i, p := range providers {
		weights[i] = w.weight(p.Name())
		total += weights[i]
	}

	w.mu.Lock()
	r := w.rnd.Float64() * total
	w.mu.Unlock()

	for i, wt := range weights {
		if r < wt {
			return []repository.Provider{providers[i]}
		}
		r -= wt
	}
	return []repository.Provider{providers[len(providers)-1]}
}

func (w *WeightedRandom) weight(name string) float64 {
	if w.health == nil {
		return defaultWeight
	}
	rate, ok := w.health.SuccessRate(name)
	if !ok {
		return defaultWeight
	}
	if rate < minWeight {
		return minWeight
	}
	return rate
}
