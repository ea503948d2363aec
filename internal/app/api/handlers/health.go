package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/payrecon/pkg/response"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// @Summary      Health check
// @Description  Returns service status
// @Tags         System
// @Produce      json
// @Success      200  {object}  handlers.RespHealth
// @Router       /healthz [get]
// @Router       /health [get]
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, response.OKT(HealthStatus{Status: "ok", Timestamp: time.Now().UTC()}))
}

func RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/healthz", Healthz)
	r.GET("/health", Healthz)
}
