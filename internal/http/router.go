package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/campusvoice/backend/internal/cache"
	"github.com/campusvoice/backend/internal/config"
	"github.com/campusvoice/backend/internal/db"
	"github.com/campusvoice/backend/internal/http/handlers"
	"github.com/campusvoice/backend/internal/http/middleware"
	"github.com/campusvoice/backend/internal/service"

	_ "github.com/campusvoice/backend/docs"
)

// Deps are the services the HTTP layer needs. Nil limiters disable rate
// limiting.
type Deps struct {
	Store         db.Store
	Submissions   *service.SubmissionService
	Scorer        *service.SeverityScorer
	Dashboard     *service.Dashboard
	SubmitLimiter *cache.Limiter
	UpvoteLimiter *cache.Limiter
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.AdminKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" || cfg.CORSAllowed == "" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:              deps.Store,
		Submissions:        deps.Submissions,
		Scorer:             deps.Scorer,
		Dashboard:          deps.Dashboard,
		Validator:          validator.New(),
		Logger:             logger,
		MaxComplaintLength: cfg.MaxComplaintLength,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/categories", h.CategoriesList)
		api.GET("/complaints", h.ComplaintsList)
		api.GET("/complaints/:id", h.ComplaintDetails)
		api.GET("/users/:id/complaints", h.UserComplaints)
		api.POST("/complaints", middleware.RateLimit(deps.SubmitLimiter, logger), h.CreateComplaint)
		api.POST("/complaints/:id/upvote", middleware.RateLimit(deps.UpvoteLimiter, logger), h.Upvote)
		api.POST("/rewrite", middleware.RateLimit(deps.SubmitLimiter, logger), h.Rewrite)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AdminKey(cfg.AdminKey, logger))
	{
		admin.GET("/stats", h.Stats)
		admin.GET("/clusters", h.ClustersList)
		admin.GET("/clusters/:id", h.ClusterDetails)
		admin.GET("/trending", h.Trending)
		admin.POST("/severity/explain", h.ExplainSeverity)
		admin.POST("/import", h.Import)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
