package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/niaga-platform/service-revenue-scanner/internal/handlers"
)

// RouteConfig holds configuration for routes
type RouteConfig struct {
	AppHandler     *handlers.AppHandler
	WebhookHandler *handlers.WebhookHandler

	// SessionMiddleware authenticates embedded admin requests.
	SessionMiddleware gin.HandlerFunc
}

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, cfg *RouteConfig) {
	// Webhook routes (public, verified by HMAC)
	webhooks := router.Group("/webhooks")
	{
		if cfg.WebhookHandler != nil {
			webhooks.POST("/shopify", cfg.WebhookHandler.Handle)
		}
	}

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Embedded app routes (require a Shopify session token)
	app := v1.Group("/app")
	if cfg.SessionMiddleware != nil {
		app.Use(cfg.SessionMiddleware)
	}
	{
		app.GET("", cfg.AppHandler.Load)
		app.POST("", cfg.AppHandler.Action)
	}
}
