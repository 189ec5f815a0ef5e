package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/service"
)

type LifecycleHandler struct {
	Query *service.AuditQueryService
}

func (h *LifecycleHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/lifecycles", h.list)
}

// @Summary List position lifecycles for an account
// @Tags lifecycles
// @Param account query string true "account address"
// @Param coin query string false "instrument filter"
// @Param open query bool false "only open (true) or closed (false) lifecycles"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Param order query string false "asc|desc"
// @Success 200 {object} apiResponse
// @Router /api/v1/lifecycles [get]
func (h *LifecycleHandler) list(c *gin.Context) {
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
	q := service.LifecycleQuery{
		Account: account,
		Coin:    strQueryPtr(c, "coin"),
		Open:    boolQueryPtr(c, "open"),
		Limit:   limit,
		Offset:  offset,
		Asc:     ascPtr(c),
	}
	res, err := h.Query.ListLifecycles(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res.Items, paginationMeta(limit, offset, res.Total))
}
