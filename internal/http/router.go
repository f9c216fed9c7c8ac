package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/impulso-galeria/auth-service/internal/config"
	"github.com/impulso-galeria/auth-service/internal/domain"
	"github.com/impulso-galeria/auth-service/internal/http/handler"
	"github.com/impulso-galeria/auth-service/internal/http/middleware"
)

// NewRouter wires Gin routes and middleware.
func NewRouter(cfg config.Config, authHandler *handler.AuthHandler, adminHandler *handler.AdminHandler, authMiddleware *middleware.Auth, rateLimiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(nil))
	if rateLimiter != nil {
		r.Use(rateLimiter.Handler())
	}
	r.Use(middleware.CORS(cfg))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.GET("/login", authHandler.Login)
		auth.GET("/callback", authHandler.Callback)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authMiddleware.RequireAuth, authHandler.Me)
	}

	admin := r.Group("/admin")
	{
		users := admin.Group("/users", authMiddleware.RequirePermission(domain.PermManageUsers))
		{
			users.GET("", adminHandler.ListUsers)
			users.POST("/:id/roles", adminHandler.AssignRole)
			users.DELETE("/:id/roles/:role", adminHandler.RemoveRole)
		}

		admin.GET("/blog/scope",
			authMiddleware.RequirePermission(domain.PermManageAllBlogPosts, domain.PermManageOwnBlogPosts),
			adminHandler.BlogScope,
		)
	}

	return r
}
