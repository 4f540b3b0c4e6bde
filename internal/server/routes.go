package server

import (
	"github.com/no-bike/software-aibot/internal/server/middleware"
	v1 "github.com/no-bike/software-aibot/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler(s.logger))

	healthHandler := v1.NewHealthHandler(s.engine)
	s.router.GET("/health", healthHandler.Health)

	conversationHandler := v1.NewConversationHandler(s.repo)

	// share links resolve without an API key
	s.router.GET("/shared/:token", conversationHandler.GetShared)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))

	if s.config.RateLimit.RequestsPerSecond > 0 {
		limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
		api.Use(limiter.Middleware())
	}

	{
		chatHandler := v1.NewChatHandler(s.service, s.multiChat)
		api.POST("/chat/completions", chatHandler.CreateCompletion)
		api.POST("/chat/multi", chatHandler.MultiChat)

		fusionHandler := v1.NewFusionHandler(s.engine)
		api.POST("/fusion/rank-and-fuse", fusionHandler.RankAndFuse)
		api.POST("/fusion/rank", fusionHandler.Rank)
		api.POST("/fusion/fuse", fusionHandler.Fuse)

		api.GET("/conversations", conversationHandler.List)
		api.GET("/conversations/:id", conversationHandler.Get)
		api.PATCH("/conversations/:id", conversationHandler.UpdateTitle)
		api.DELETE("/conversations/:id", conversationHandler.Delete)
		api.POST("/conversations/:id/share", conversationHandler.Share)

		analyticsHandler := v1.NewAnalyticsHandler(s.repo)
		api.GET("/analytics/fusions", analyticsHandler.RecentFusions)

		modelsHandler := v1.NewModelHandler(s.service)
		api.GET("/models", modelsHandler.List)
	}
}
