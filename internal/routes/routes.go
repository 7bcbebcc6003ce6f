package routes

import (
	"offerwise_backend/internal/handlers"
	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/middleware"
	"offerwise_backend/ws"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires all HTTP and WebSocket routes.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.ProfileHandler.RegisterRoutes(api)
		appHandlers.RecommendationHandler.RegisterRoutes(api)
		appHandlers.CandidateHandler.RegisterRoutes(api)
		appHandlers.VersionHandler.RegisterRoutes(api)
	}

	wsGroup := ginRouter.Group("/ws")
	wsGroup.Use(middleware.AuthMiddleware())
	{
		wsGroup.GET("", wsHandler.ServeWS)
	}
	logger.Info("WebSocket route /ws registered")
}
