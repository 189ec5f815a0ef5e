package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/service"
)

type PnLHandler struct {
	Query *service.AuditQueryService
}

func (h *PnLHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/pnl", h.summary)
}

// @Summary PnL summary for an account
// @Tags pnl
// @Param account query string true "account address"
// @Param coin query string false "instrument filter"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param attributed_only query bool false "drop manual fills and tainted lifecycles"
// @Param capital_cap query string false "ceiling for the return-percentage base"
// @Success 200 {object} apiResponse
// @Router /api/v1/pnl [get]
func (h *PnLHandler) summary(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "query service unavailable", nil)
		return
	}
	account := strings.TrimSpace(c.Query("account"))
	if account == "" {
		Error(c, http.StatusBadRequest, "account is required", nil)
		return
	}
	capitalCap, err := decimalQueryPtr(c, "capital_cap")
	if err != nil {
		Error(c, http.StatusBadRequest, "invalid capital_cap", nil)
		return
	}
	q := service.PnLQuery{
		Account:        account,
		Coin:           strQueryPtr(c, "coin"),
		Since:          timeQueryPtr(c, "since"),
		Until:          timeQueryPtr(c, "until"),
		AttributedOnly: boolQueryDefault(c, "attributed_only", false),
		CapitalCap:     capitalCap,
	}
	sum, err := h.Query.PnLSummary(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, sum, nil)
}
