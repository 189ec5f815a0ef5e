package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tradeaudit/internal/service"
)

type SyncHandler struct {
	Sync  *service.FillSyncService
	Query *service.AuditQueryService

	// DefaultAccounts backs a sync request that names no accounts.
	DefaultAccounts []string
}

func (h *SyncHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/sync", h.run)
	r.GET("/api/v1/sync/state", h.state)
}

// @Summary Run a fill ingestion pass
// @Tags sync
// @Param accounts query string false "comma-separated account list (default: configured accounts)"
// @Param coin query string false "restrict the fetch to one instrument"
// @Param full query bool false "ignore the watermark and refetch the whole lookback window"
// @Success 200 {object} apiResponse
// @Router /api/v1/sync [post]
func (h *SyncHandler) run(c *gin.Context) {
	if h.Sync == nil {
		Error(c, http.StatusInternalServerError, "sync service unavailable", nil)
		return
	}
	accounts := splitList(c.Query("accounts"))
	if len(accounts) == 0 {
		accounts = h.DefaultAccounts
	}
	if len(accounts) == 0 {
		Error(c, http.StatusBadRequest, "no accounts to sync", nil)
		return
	}
	coin := ""
	if v := strQueryPtr(c, "coin"); v != nil {
		coin = *v
	}
	opts := service.SyncOptions{
		Accounts: accounts,
		Coin:     coin,
		Full:     boolQueryDefault(c, "full", false),
	}
	result, err := h.Sync.Sync(c.Request.Context(), opts)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, result, nil)
}

// @Summary List per-account sync states
// @Tags sync
// @Success 200 {object} apiResponse
// @Router /api/v1/sync/state [get]
func (h *SyncHandler) state(c *gin.Context) {
	if h.Query == nil {
		Error(c, http.StatusInternalServerError, "query service unavailable", nil)
		return
	}
	states, err := h.Query.SyncStates(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, states, nil)
}
