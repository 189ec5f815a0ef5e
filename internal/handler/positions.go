package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/service"
)

type PositionHandler struct {
	Query *service.AuditQueryService
}

func (h *PositionHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/positions", h.history)
}

// @Summary Position snapshot history for an account
// @Tags positions
// @Param account query string true "account address"
// @Param coin query string false "instrument filter"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param attributed_only query bool false "keep only snapshots inside clean attributed lifecycles"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param order query string false "asc|desc"
// @Success 200 {object} apiResponse
// @Router /api/v1/positions [get]
func (h *PositionHandler) history(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "query service unavailable", nil)
		return
	}
	account := strings.TrimSpace(c.Query("account"))
	if account == "" {
		Error(c, http.StatusBadRequest, "account is required", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	q := service.PositionQuery{
		Account:        account,
		Coin:           strQueryPtr(c, "coin"),
		Since:          timeQueryPtr(c, "since"),
		Until:          timeQueryPtr(c, "until"),
		AttributedOnly: boolQueryDefault(c, "attributed_only", false),
		Limit:          limit,
		Offset:         offset,
		Asc:            ascPtr(c),
	}
	res, err := h.Query.PositionHistory(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res.Items, paginationMeta(limit, offset, res.Total))
}
