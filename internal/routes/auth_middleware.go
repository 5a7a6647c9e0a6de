// Authentication middleware for destructive local admin routes.
// Checks for a valid admin bearer token in the request header.
package routes

import (
	"strings"

	"github.com/gin-gonic/gin"

	"attendance-kiosk/internal/auth"
	"attendance-kiosk/internal/station"
)

// RequireAdmin validates the Authorization header against the station
// secret and checks the embedded station ID signature.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		deps := getDeps(c)

		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.Error(ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := auth.DecodeAdminJWT(token, deps.Cfg.Secret)
		if err != nil {
			c.Error(ErrUnauthorized)
			c.Abort()
			return
		}

		if !station.VerifyStationID(claims.StationID, []byte(deps.Cfg.Secret)) {
			c.Error(ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set("stationID", claims.StationID)
		c.Next()
	}
}
