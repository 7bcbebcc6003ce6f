package app

import (
	"context"
	"fmt"

	"offerwise_backend/database"
	"offerwise_backend/internal/config"
	"offerwise_backend/internal/email"
	"offerwise_backend/internal/handlers"
	"offerwise_backend/internal/logger"
	"offerwise_backend/internal/middleware"
	"offerwise_backend/internal/repositories"
	"offerwise_backend/internal/routes"
	"offerwise_backend/internal/services"
	"offerwise_backend/internal/validator"
	"offerwise_backend/internal/workers"
	"offerwise_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := database.ConnectGorm()
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	// WebSocket hub first: the recommendation service publishes into it.
	wsHub := ws.NewHub()
	go wsHub.Run()
	wsHandler := ws.NewWebSocketHandler(wsHub)

	serviceContainer := initializeServices(cfg, gormDB, wsHub)
	appHandlers := initializeHandlers(serviceContainer)

	janitor := workers.NewRunJanitor(serviceContainer.RecommendationService, cfg.Recommendation.RunRetention)
	janitor.Start(context.Background())

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter
}

func initializeServices(cfg *config.Config, gormDB *gorm.DB, wsHub *ws.Hub) *services.ServiceContainer {
	var notifier *email.Notifier
	if cfg.Email.Enabled {
		notifier = email.NewNotifier(email.NewSMTPSender(cfg), cfg.Email.NotifyEmail)
	} else {
		logger.Warn("Email notices disabled by config")
	}

	profileRepo := repositories.NewProfileRepository(gormDB)
	programRepo := repositories.NewProgramRepository(gormDB)
	candidateRepo := repositories.NewCandidateRepository(gormDB)
	versionRepo := repositories.NewVersionRepository(gormDB)

	profileService := services.NewProfileService(profileRepo)
	criteriaService := services.NewCriteriaService(profileRepo)
	versionService := services.NewVersionService(versionRepo, nilIfDisabled(notifier))
	poolService := services.NewCandidatePoolService(candidateRepo)
	recommendationService := services.NewRecommendationService(
		programRepo,
		versionService,
		runNotifierOrNil(notifier),
		services.RecommendationConfig{
			QuickMatchLimit: cfg.Recommendation.QuickMatchLimit,
			CorpusBatchSize: cfg.Recommendation.CorpusBatchSize,
			StepDelay:       cfg.Recommendation.StepDelay,
		},
		wsHub,
	)

	return &services.ServiceContainer{
		ProfileService:        profileService,
		CriteriaService:       criteriaService,
		RecommendationService: recommendationService,
		CandidatePoolService:  poolService,
		VersionService:        versionService,
	}
}

// Typed-nil guards: a nil *email.Notifier stored in an interface would not
// compare equal to nil inside the services.
func nilIfDisabled(n *email.Notifier) services.AdoptNotifier {
	if n == nil {
		return nil
	}
	return n
}

func runNotifierOrNil(n *email.Notifier) services.RunNotifier {
	if n == nil {
		return nil
	}
	return n
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		ProfileHandler:        handlers.NewProfileHandler(baseHandler, container.ProfileService),
		RecommendationHandler: handlers.NewRecommendationHandler(baseHandler, container.CriteriaService, container.RecommendationService),
		CandidateHandler:      handlers.NewCandidateHandler(baseHandler, container.CandidatePoolService),
		VersionHandler:        handlers.NewVersionHandler(baseHandler, container.VersionService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}
