package api

import (
	"context"
	"time"

	"QuotePull/internal/domain/models"
	"QuotePull/internal/service/strategy"
	"QuotePull/internal/usecase"
	xhttp "QuotePull/pkg/http"
	applogger "QuotePull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// MonitorEchoHandler exposes aggregator health, statistics and strategy control.
type MonitorEchoHandler struct {
	logger *applogger.Logger
	agg    *usecase.DataAggregator
}

func NewMonitorEchoHandler(logger *applogger.Logger, agg *usecase.DataAggregator) *MonitorEchoHandler {
	return &MonitorEchoHandler{logger: logger, agg: agg}
}

func (h *MonitorEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/health/:name", h.ProviderHealth)
	g.POST("/health/probe", h.Probe)
	g.GET("/stats", h.Stats)
	g.GET("/providers", h.Providers)
	g.PUT("/strategy", h.SetStrategy)
}

// Health returns the health snapshot of every provider.
func (h *MonitorEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.agg.GetProviderHealth())
}

func (h *MonitorEchoHandler) ProviderHealth(c echo.Context) error {
	name := c.Param("name")
	ph, ok := h.agg.GetProviderHealth()[name]
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("provider %q not registered", name))
	}
	return xhttp.SuccessResponse(c, ph)
}

// Probe runs one health check round and returns the per-provider outcome.
func (h *MonitorEchoHandler) Probe(c echo.Context) error {
	req := &models.ProbeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), time.Duration(req.TimeoutMs)*time.Millisecond)
	defer cancel()

	results := h.agg.UpdateProviderHealth(ctx)
	return xhttp.SuccessResponse(c, results)
}

func (h *MonitorEchoHandler) Stats(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, h.agg.GetStatistics())
}

// Providers lists registered providers in registration order.
func (h *MonitorEchoHandler) Providers(c echo.Context) error {
	ps := h.agg.Providers()
	out := make([]models.ProviderInfo, 0, len(ps))
	for _, p := range ps {
		out = append(out, models.ProviderInfo{Name: p.Name(), Priority: p.Priority(), RateLimit: p.RateLimit()})
	}
	return xhttp.ListResponse(c, out, int64(len(out)))
}

func (h *MonitorEchoHandler) SetStrategy(c echo.Context) error {
	req := &models.StrategyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s, err := strategy.New(req.Name, h.agg.Ledger())
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()).WithError(err))
	}
	prev := h.agg.StrategyName()
	h.agg.SetStrategy(s)
	h.logger.Info("strategy switched via api", applogger.String("from", prev), applogger.String("to", s.Name()))
	return xhttp.SuccessResponse(c, map[string]string{"strategy": s.Name(), "previous": prev})
}
