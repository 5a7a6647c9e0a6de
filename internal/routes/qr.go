package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 512

// getDashboardQR renders a QR code linking the kiosk display to the cloud
// dashboard, so an operator standing at the kiosk can open the fleet view
// on their phone.
func getDashboardQR(c *gin.Context) {
	deps := getDeps(c)

	url := deps.Cfg.Cloud.DashboardURL
	if url == "" {
		url = deps.Cfg.Cloud.BaseURL
	}
	if url == "" {
		c.Error(ErrMissingParameter)
		return
	}

	qr, err := qrcode.Encode(url, qrcode.Medium, qrImageSize)
	if err != nil {
		c.Error(ErrInternalServer)
		return
	}

	c.Data(http.StatusOK, "image/png", qr)
}
