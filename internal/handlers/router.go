package handlers

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"site-generator-backend/internal/logger"
	"site-generator-backend/internal/middleware"
	"site-generator-backend/internal/services"
)

type Dependencies struct {
	Sites       *services.SiteService
	Leads       *services.LeadService
	JWTSecret   string
	RateLimiter *middleware.RateLimiter

	// TrustedProxies may set X-Forwarded-For; with none, the client IP is
	// always the connection's remote address.
	TrustedProxies []string
}

func NewRouter(dep Dependencies) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(dep.TrustedProxies); err != nil {
		logger.L().Error("invalid trusted proxies, trusting none", zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.Logging())
	router.Use(middleware.Recovery())

	sitesHandler := NewSitesHandler(dep.Sites)
	previewHandler := NewPreviewHandler(dep.Sites)
	downloadHandler := NewDownloadHandler(dep.Sites)
	leadsHandler := NewLeadsHandler(dep.Leads)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", HealthHandler)

	api := router.Group("/api/v1")

	// Generation is rate limited per client IP
	generation := api.Group("")
	if dep.RateLimiter != nil {
		generation.Use(dep.RateLimiter.Handler())
	}
	generation.POST("/generate", sitesHandler.Generate)
	generation.POST("/modify", sitesHandler.Modify)

	api.GET("/conversations/:conversation_id", sitesHandler.GetConversation)
	api.GET("/conversations/:conversation_id/versions", sitesHandler.ListVersions)
	api.GET("/preview/:site_id", previewHandler.Preview)

	api.POST("/leads", leadsHandler.CreateLead)
	api.POST("/leads/check-email", leadsHandler.CheckEmail)

	// Token issuing is called by the payment backend with a Supabase JWT
	api.POST("/conversations/:conversation_id/download-token",
		middleware.AuthMiddleware(dep.JWTSecret), downloadHandler.IssueToken)
	api.GET("/download", downloadHandler.Download)

	return router
}
