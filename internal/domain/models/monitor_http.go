package models

// Requests and responses for the monitoring HTTP endpoints.

type StrategyRequest struct {
	Name string `json:"name" validate:"required,oneof=Failover RoundRobin WeightedRandom"`
}

type ProbeRequest struct {
	TimeoutMs int `query:"timeout_ms" json:"timeout_ms" default:"3000" validate:"gte=100,lte=60000"`
}

type ProviderInfo struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	RateLimit int    `json:"rate_limit"`
}
