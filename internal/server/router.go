package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/mediabridge/mediabridge-backend/internal/handlers"
	"github.com/mediabridge/mediabridge-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName           string
	HealthcheckHandler    *handlers.HealthcheckHandler
	AuthHandler           *handlers.AuthHandler
	AuthMiddleware        *middleware.AuthMiddleware
	UserHandler           *handlers.UserHandler
	FavoriteHandler       *handlers.FavoriteHandler
	RecommendationHandler *handlers.RecommendationHandler
	SearchHandler         *handlers.SearchHandler
	TrendingHandler       *handlers.TrendingHandler
	WrappedHandler        *handlers.WrappedHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	api := router.Group("/api")
	api.GET("/search", cfg.SearchHandler.Search)
	api.GET("/trending", cfg.TrendingHandler.Trending)
	// Guest onboarding builds recommendations before an account exists.
	api.POST("/recommendations/preview", cfg.RecommendationHandler.Preview)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)

	papi := protected.Group("/api")
	// Favorites & dislikes
	papi.POST("/favorites", cfg.FavoriteHandler.SaveAndFavorite)
	papi.GET("/favorites", cfg.FavoriteHandler.List)
	papi.DELETE("/favorites", cfg.FavoriteHandler.Unfavorite)
	papi.POST("/dislikes", cfg.FavoriteHandler.Dislike)
	// Recommendations
	papi.POST("/recommendations", cfg.RecommendationHandler.Build)
	// Wrapped
	papi.GET("/wrapped", cfg.WrappedHandler.Insights)

	return router
}
