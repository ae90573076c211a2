package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mediabridge/mediabridge-backend/internal/clients/openai"
	"github.com/mediabridge/mediabridge-backend/internal/clients/pinecone"
	"github.com/mediabridge/mediabridge-backend/internal/clients/rediscache"
	"github.com/mediabridge/mediabridge-backend/internal/db"
	"github.com/mediabridge/mediabridge-backend/internal/handlers"
	"github.com/mediabridge/mediabridge-backend/internal/logger"
	"github.com/mediabridge/mediabridge-backend/internal/middleware"
	"github.com/mediabridge/mediabridge-backend/internal/observability"
	"github.com/mediabridge/mediabridge-backend/internal/providers"
	"github.com/mediabridge/mediabridge-backend/internal/repos"
	"github.com/mediabridge/mediabridge-backend/internal/server"
	"github.com/mediabridge/mediabridge-backend/internal/services"
	"github.com/mediabridge/mediabridge-backend/internal/utils"
)

const serviceName = "mediabridge-backend"

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	ctx := context.Background()
	if shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	}); shutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	mediaItemRepo := repos.NewMediaItemRepo(thePG, log)
	favoriteRepo := repos.NewFavoriteRepo(thePG, log)
	dislikeRepo := repos.NewDislikeRepo(thePG, log)

	// Clients
	log.Info("Setting up clients from main...")
	openaiClient, err := openai.New(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	pineconeClient, err := pinecone.New(log, pinecone.Config{
		APIKey:     os.Getenv("PINECONE_API_KEY"),
		APIVersion: utils.GetEnv("PINECONE_API_VERSION", "2025-10", log),
	})
	if err != nil {
		log.Error("Could not init Pinecone client", "error", err)
		os.Exit(1)
	}
	vectorStore, err := pinecone.NewVectorStore(log, pineconeClient)
	if err != nil {
		log.Error("Could not init vector store", "error", err)
		os.Exit(1)
	}
	cache := rediscache.New(log)

	// Provider gateways
	registry := providers.NewRegistry(
		providers.NewTMDBGateway(log),
		providers.NewIGDBGateway(log),
		providers.NewGBooksGateway(log),
	)

	// Services
	log.Info("Setting up services from main...")
	embeddingService := services.NewEmbeddingService(log, openaiClient, mediaItemRepo, vectorStore)
	tasteAggregator := services.NewTasteAggregator(log, embeddingService)
	similarityService := services.NewSimilarityService(log, vectorStore)
	heuristicScorer := services.NewHeuristicScorer(log)
	seedPlanner := services.NewSeedPlanner(log, openaiClient)
	trendingService := services.NewTrendingService(log, registry, cache)
	recommendationService := services.NewRecommendationService(
		log,
		favoriteRepo,
		dislikeRepo,
		registry,
		tasteAggregator,
		similarityService,
		heuristicScorer,
		seedPlanner,
		trendingService,
	)
	favoriteService := services.NewFavoriteService(thePG, log, mediaItemRepo, favoriteRepo, dislikeRepo, embeddingService)
	searchService := services.NewSearchService(log, registry)
	wrappedService := services.NewWrappedService(log, favoriteRepo, openaiClient)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(log, userRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthcheckHandler := handlers.NewHealthcheckHandler()
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
	recommendationHandler := handlers.NewRecommendationHandler(recommendationService)
	searchHandler := handlers.NewSearchHandler(searchService)
	trendingHandler := handlers.NewTrendingHandler(trendingService)
	wrappedHandler := handlers.NewWrappedHandler(wrappedService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ServiceName:           serviceName,
		HealthcheckHandler:    healthcheckHandler,
		AuthHandler:           authHandler,
		AuthMiddleware:        authMiddleware,
		UserHandler:           userHandler,
		FavoriteHandler:       favoriteHandler,
		RecommendationHandler: recommendationHandler,
		SearchHandler:         searchHandler,
		TrendingHandler:       trendingHandler,
		WrappedHandler:        wrappedHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
