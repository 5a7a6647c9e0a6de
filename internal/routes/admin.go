package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-kiosk/internal/auth"
	"attendance-kiosk/internal/station"
)

type tokenRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// postAdminToken mints a short-lived admin token after PIN verification.
func postAdminToken(c *gin.Context) {
	deps := getDeps(c)

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ErrMissingParameter)
		return
	}

	ok, err := station.VerifyPIN(c.Request.Context(), deps.Store, req.PIN)
	if err != nil {
		c.Error(err)
		return
	}
	if !ok {
		c.Error(ErrInvalidPIN)
		return
	}

	ttl := time.Duration(deps.Cfg.AdminTokenTTL) * time.Minute
	claim := auth.NewAdminClaim(deps.Station.ID, ttl)
	token, err := auth.GenerateJWT(claim, deps.Cfg.Secret)
	if err != nil {
		c.Error(ErrInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(ttl.Seconds()),
	})
}

// postResetFailed re-queues failed events. The only path from failed back
// to pending.
func postResetFailed(c *gin.Context) {
	deps := getDeps(c)

	reset, err := deps.Store.ResetFailed(c.Request.Context())
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": reset})
}

// deleteQueue wipes the local scan queue. Station identity and meta keys
// are untouched; this mirrors what a cloud reset does via reconciliation.
func deleteQueue(c *gin.Context) {
	deps := getDeps(c)

	deleted, err := deps.Store.ClearAll(c.Request.Context())
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
