package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lucashml/medscribe/internal/common"
	"github.com/lucashml/medscribe/internal/config"
	"github.com/lucashml/medscribe/internal/httpapi/handlers"
	"github.com/lucashml/medscribe/internal/httpapi/middleware"
	"github.com/lucashml/medscribe/internal/llmconfig"
	"github.com/lucashml/medscribe/internal/store/rabbitmq"
	"github.com/lucashml/medscribe/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, llm *llmconfig.Service, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(db, cfg, llm, rds, rabbit)

	api := r.Group("/api")

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": "3.0", "engine": "medscribe"})
	})

	// Pipeline
	api.POST("/analyze", h.Analyze)
	api.POST("/analyze/async", h.AnalyzeAsync)
	api.GET("/analyze/jobs/:job_id", h.GetAnalyzeJob)

	// Transcription
	api.POST("/transcribe", h.Transcribe)

	// Copilot
	api.POST("/analise-clinica", h.ClinicalInsights)
	api.POST("/sistematizar-consulta", h.Systematize)

	// Reads
	api.GET("/consultations", h.ListConsultations)
	api.GET("/consultations/:id", h.GetConsultation)
	api.GET("/bi/stats", h.BIStats)

	// Accounts
	api.POST("/physicians", h.CreatePhysician)
	api.POST("/login", h.Login)

	// Settings admin (JWT required)
	settings := api.Group("/settings/llm")
	settings.Use(middleware.AuthRequired(cfg.JWTSecret))
	settings.GET("", h.GetLLMSettings)
	settings.PUT("", h.UpdateLLMSettings)
	settings.POST("/test", h.TestLLMConnection)

	return r
}
