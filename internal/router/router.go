// Package router wires the HTTP routes to their handlers.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cliniscribe/internal/config"
	"cliniscribe/internal/handler"
	"cliniscribe/internal/middleware"
)

// Setup builds the gin engine with the middleware chain and all routes.
func Setup(
	cfg *config.Config,
	logger *zap.Logger,
	documentH *handler.DocumentHandler,
	jobH *handler.ExtractionJobHandler,
	letterH *handler.LetterHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("", documentH.Create)
			documents.POST("/upload", documentH.Upload)
			documents.GET("", documentH.List)
			documents.GET("/:id", documentH.Get)
			documents.GET("/:id/download", documentH.DownloadURL)
			documents.POST("/:id/extract", documentH.EnqueueExtraction)
			documents.GET("/:id/extraction", documentH.GetExtractionJob)
			documents.POST("/:id/identity-match", documentH.IdentityMatch)
		}

		jobs := v1.Group("/extraction-jobs")
		{
			jobs.GET("/:id", jobH.Get)
			jobs.POST("/:id/run", jobH.Run)
		}

		letters := v1.Group("/letters")
		{
			letters.POST("", letterH.Create)
			letters.GET("", letterH.List)
			letters.GET("/:id", letterH.Get)
			letters.PUT("/:id", letterH.Edit)
			letters.GET("/:id/source-check", letterH.SourceCheck)
			letters.POST("/:id/values/:valueId/verify", letterH.VerifyValue)
			letters.POST("/:id/verify-all", letterH.VerifyAll)
			letters.POST("/:id/flags/:flagId/dismiss", letterH.DismissFlag)
			letters.POST("/:id/approve", letterH.Approve)
			letters.GET("/:id/provenance", letterH.GetProvenance)
			letters.GET("/:id/provenance/report", letterH.ProvenanceReport)
			letters.GET("/:id/export", letterH.ExportLedger)
		}
	}

	return r
}
