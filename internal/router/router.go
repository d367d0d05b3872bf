package router

import (
	"github.com/gin-gonic/gin"

	"creditscope/internal/handler"
	"creditscope/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	allowedOrigins []string,
	maxUploadBytes int64,
	uploadH *handler.UploadHandler,
	analysisH *handler.AnalysisHandler,
	reportH *handler.ReportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()
	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(allowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	v1.POST("/upload", uploadH.Upload)
	v1.POST("/analyze", analysisH.Analyze)
	v1.POST("/reports/export", reportH.Export)

	return r
}
