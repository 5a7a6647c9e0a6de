package routes

import (
	"github.com/gin-gonic/gin"

	"attendance-kiosk/internal/api"
	"attendance-kiosk/internal/config"
	"attendance-kiosk/internal/roster"
	"attendance-kiosk/internal/station"
	"attendance-kiosk/internal/storage"
	"attendance-kiosk/internal/syncer"
)

// Deps carries everything the kiosk API handlers need. Injected once at
// registration; handlers read it from the gin context.
type Deps struct {
	Cfg     *config.Config
	Store   storage.Provider
	Client  *api.Client
	Worker  *syncer.Worker
	Orch    *syncer.Orchestrator
	Station station.Identity
	Roster  *roster.Roster
}

const depsKey = "Deps"

func getDeps(c *gin.Context) *Deps {
	return c.MustGet(depsKey).(*Deps)
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")

	// Disable caching: everything here is live status
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// RegisterRoutes wires the local kiosk API onto a gin engine.
func RegisterRoutes(r *gin.Engine, deps *Deps) {
	r.Use(func(c *gin.Context) {
		c.Set(depsKey, deps)
		c.Next()
	})
	r.Use(securityHeaders)
	r.Use(ErrorHandler())

	Health(r.Group("/"))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/scan", postScan)
		apiGroup.GET("/status", getStatus)
		apiGroup.POST("/sync", postSync)
		apiGroup.GET("/stations", getStations)
		apiGroup.POST("/admin/token", postAdminToken)
	}

	admin := apiGroup.Group("/admin")
	admin.Use(RequireAdmin())
	{
		admin.POST("/reset-failed", postResetFailed)
		admin.DELETE("/queue", deleteQueue)
	}

	r.GET("/qr", getDashboardQR)
}
