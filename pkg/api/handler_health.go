package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arborly/risklab/pkg/database"
	"github.com/arborly/risklab/pkg/version"
)

// NewHealthRouter returns a minimal Gin router exposing GET /health,
// served on its own port alongside the main Echo API — the teacher's own
// server runs its primary Echo router and a bootstrap Gin health endpoint
// side by side, and this repository preserves that split (see SPEC_FULL
// §4.7) rather than collapsing onto a single HTTP framework.
func NewHealthRouter(dbClient *database.Client) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		dbHealth, err := database.Health(reqCtx, dbClient.DB())
		resp := HealthResponse{Version: version.Full()}
		if err != nil {
			resp.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}

		resp.Status = "healthy"
		resp.Database = &HealthCheckDetails{
			Status:          dbHealth.Status,
			OpenConnections: dbHealth.OpenConnections,
			InUse:           dbHealth.InUse,
			Idle:            dbHealth.Idle,
		}
		c.JSON(http.StatusOK, resp)
	})

	return r
}
