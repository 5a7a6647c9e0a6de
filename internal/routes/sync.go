package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// postSync runs a single-page sync immediately. Bounded latency: one page,
// not a full drain. Returns 409 when a background cycle holds the lock.
func postSync(c *gin.Context) {
	deps := getDeps(c)

	result, ran, err := deps.Worker.SyncNow(c.Request.Context())
	if err != nil {
		c.Error(ErrDatabaseError)
		return
	}
	if !ran {
		c.Error(ErrSyncBusy)
		return
	}

	c.JSON(http.StatusOK, result)
}

// getStations passes the cloud's station health view through to the local
// display. Cloud failures come back as an explicit error payload, not a
// broken page.
func getStations(c *gin.Context) {
	deps := getDeps(c)

	status, err := deps.Client.StationStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, status)
}
