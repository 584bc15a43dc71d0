package strategy

import (
	"fmt"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
)

const (
	NameFailover       = "Failover"
	NameRoundRobin     = "RoundRobin"
	NameWeightedRandom = "WeightedRandom"
)

// Strategy orders the candidates tried for one request.
// Select must not modify the providers slice and returns an empty result for empty input.
type Strategy interface {
	Name() string
	Select(category models.Category, providers []repository.Provider) []repository.Provider
}

// HealthSource reports the rolling success rate of a provider.
// ok is false when no outcome has been recorded yet.
type HealthSource interface {
	SuccessRate(name string) (rate float64, ok bool)
}

// New builds a strategy by name.
func New(name string, health HealthSource) (Strategy, error) {
	switch name {
	case NameFailover:
		return NewFailover(), nil
	case NameRoundRobin:
		return NewRoundRobin(), nil
	case NameWeightedRandom:
		return NewWeightedRandom(WithHealthSource(health)), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
