package handlers

import (
	"errors"
	"net/http"

	"eta_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK     = "ok"
	statusSynced = "synced"
	statusReset  = "reset"

	errNoSnapshot   = "no snapshot yet"
	errSyncInFlight = "a sync is already in flight"
	errSyncReset    = "sync discarded by a reset; state is empty"
	errSyncFailed   = "sync failed"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if h.services.Sync != nil {
		resp["sync_in_flight"] = h.services.InFlight()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Current telemetry snapshot
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/telemetry [get]
// @Security     BearerAuth
func (h *Handler) getTelemetry(c *gin.Context) {
	snap, err := h.services.Snapshot()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoSnapshot})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Chart history
// @Description  Rolling buffer of selected metrics, oldest first.
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "capacity, count, points"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	points := h.services.History()
	c.JSON(http.StatusOK, gin.H{
		"capacity": h.services.HistoryCapacity(),
		"count":    len(points),
		"points":   points,
	})
}

// @Summary      Parameter tree
// @Description  Visible rows of the controller parameter tree. Expand/collapse toggles persist until the tree is replaced by the next sync.
// @Tags         telemetry
// @Produce      json
// @Param        expand    query  []string  false  "Node paths to expand"  collectionFormat(multi)
// @Param        collapse  query  []string  false  "Node paths to collapse"  collectionFormat(multi)
// @Success      200  {object}  map[string]interface{}  "revision, rows"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/tree [get]
// @Security     BearerAuth
func (h *Handler) getTree(c *gin.Context) {
	rows, rev := h.services.TreeRows(c.QueryArray("expand"), c.QueryArray("collapse"))
	c.JSON(http.StatusOK, gin.H{
		"revision": rev,
		"rows":     rows,
	})
}

// @Summary      Sync now
// @Description  Runs one sync cycle immediately. Rejected while another cycle is in flight.
// @Tags         telemetry
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, snapshot"
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/sync [post]
// @Security     BearerAuth
func (h *Handler) syncNow(c *gin.Context) {
	snap, err := h.services.SyncNow(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrSyncInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": errSyncInFlight})
		return
	case errors.Is(err, service.ErrSyncDiscarded):
		c.JSON(http.StatusConflict, gin.H{"error": errSyncReset})
		return
	case err != nil:
		if h.log != nil {
			h.log.Infow("manual_sync_failed", "err", err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": errSyncFailed + ": " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSynced, "snapshot": snap})
}
