package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendance-kiosk/internal/storage"
)

type scanRequest struct {
	BadgeID string `json:"badge_id" binding:"required"`
	// Optional explicit scan time in canonical UTC form. Defaults to now.
	ScannedAt string `json:"scanned_at"`
}

// postScan is the capture front end's entry point: store the badge and
// return immediately. No network involvement; a sync in flight never
// delays this path.
func postScan(c *gin.Context) {
	deps := getDeps(c)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ErrBadgeRequired)
		return
	}

	var identity *storage.Identity
	matched := false
	if ident, ok := deps.Roster.Lookup(req.BadgeID); ok {
		identity = &ident
		matched = true
	}

	id, err := deps.Store.Enqueue(c.Request.Context(), req.BadgeID, deps.Station.Name, identity, req.ScannedAt)
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}

	if deps.Worker != nil {
		deps.Worker.NotifyScan()
	}

	resp := gin.H{
		"id":      id,
		"matched": matched,
	}
	if identity != nil {
		resp["full_name"] = identity.FullName
	}
	c.JSON(http.StatusCreated, resp)
}

// getStatus reports queue counters plus station identity for the display.
func getStatus(c *gin.Context) {
	deps := getDeps(c)

	stats, err := deps.Store.Stats(c.Request.Context())
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}

	epoch, _, err := deps.Store.GetMeta(c.Request.Context(), storage.MetaKeyLastClearEpoch)
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"station":          deps.Station.Name,
		"queue":            stats,
		"last_clear_epoch": epoch,
	})
}
