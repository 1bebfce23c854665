package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/traitedesk/backend/internal/application/report"
)

// StatsService builds the dashboard payloads
type StatsService interface {
	TraiteStats(ctx context.Context) report.TraiteStats
	ClientStats(ctx context.Context) report.ClientStats
}

// StatsHandler serves dashboard statistics. Failures are reported in the
// payload's error field, never as an HTTP error.
type StatsHandler struct {
	BaseHandler
	stats StatsService
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Traites godoc
// @Summary      Traite dashboard statistics
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=report.TraiteStats}
// @Router       /stats/traites [get]
func (h *StatsHandler) Traites(c *gin.Context) {
	h.Success(c, h.stats.TraiteStats(c.Request.Context()))
}

// Clients godoc
// @Summary      Client dashboard statistics
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=report.ClientStats}
// @Router       /stats/clients [get]
func (h *StatsHandler) Clients(c *gin.Context) {
	h.Success(c, h.stats.ClientStats(c.Request.Context()))
}
