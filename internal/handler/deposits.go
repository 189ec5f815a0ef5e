package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/service"
)

type DepositHandler struct {
	Query *service.AuditQueryService
}

func (h *DepositHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/deposits", h.list)
}

// @Summary List deposits for an account
// @Tags deposits
// @Param account query string true "account address"
// @Param since query string false "RFC3339 lower bound"
// @Param until query string false "RFC3339 upper bound"
// @Param limit query int false "limit"
// @Param offset query int false "offset"
// @Success 200 {object} apiResponse
// @Router /api/v1/deposits [get]
func (h *DepositHandler) list(c *gin.Context) {
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
	q := service.DepositQueryParams{
		Account: account,
		Since:   timeQueryPtr(c, "since"),
		Until:   timeQueryPtr(c, "until"),
		Limit:   limit,
		Offset:  offset,
		Asc:     ascPtr(c),
	}
	res, err := h.Query.ListDeposits(c.Request.Context(), q)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, res.Items, paginationMeta(limit, offset, res.Total))
}
