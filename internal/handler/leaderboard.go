package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/metrics"
	"tradeaudit/internal/service"
)

type LeaderboardHandler struct {
	Query *service.AuditQueryService

	// DefaultMetric backs a request that names no metric.
	DefaultMetric string
}

func (h *LeaderboardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/leaderboard", h.list)
}

// @Summary Competition leaderboard
// @Tags leaderboard
// @Param accounts query string false "comma-separated account list (default: all known accounts)"
// @Param metric query string false "volume|pnl|return (default: configured default metric)"
// @Param coin query string false "instrument filter"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param attributed_only query bool false "exclude accounts with any tainted lifecycle"
// @Param capital_cap query string false "ceiling for the return-percentage base"
// @Success 200 {object} apiResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) list(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "query service unavailable", nil)
		return
	}
	raw := strings.TrimSpace(c.Query("metric"))
	if raw == "" {
		raw = h.DefaultMetric
	}
	metric, err := metrics.ParseMetric(raw)
	if err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	capitalCap, err := decimalQueryPtr(c, "capital_cap")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid capital_cap", nil)
		return
	}
	q := service.LeaderboardQuery{
		Accounts:       splitList(c.Query("accounts")),
		Metric:         metric,
		Coin:           strQueryPtr(c, "coin"),
		Since:          timeQueryPtr(c, "since"),
		Until:          timeQueryPtr(c, "until"),
		AttributedOnly: boolQueryDefault(c, "attributed_only", true),
		CapitalCap:     capitalCap,
	}
	entries, err := h.Query.Leaderboard(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, entries, map[string]any{"metric": string(metric), "entries": len(entries)})
}
