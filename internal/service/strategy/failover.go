package strategy

import (
	"sort"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/domain/repository"
)

// Failover orders all providers by ascending priority. Ties keep registration order.
type Failover struct{}

func NewFailover() *Failover { return &Failover{} }

func (*Failover) Name() string { return NameFailover }

func (*Failover) Select(_ models.Category, providers []repository.Provider) []repository.Provider {
	out := make([]repository.Provider, len(providers))
	copy(out, providers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
