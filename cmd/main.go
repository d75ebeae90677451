package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"farm-service/internal/handler"
	mid "farm-service/internal/middleware"
	"farm-service/pkg/config"
	"farm-service/pkg/database"
	"farm-service/pkg/jwtutil"
	"farm-service/pkg/logger"
	"farm-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	if err := logger.InitLogger(appConfig); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting farm-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics and health endpoints
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.Health)

	// Crop profile API routes
	cropAPI := e.Group("/api/crops", mid.AuthMiddleware)
	cropAPI.GET("", handler.ListCropProfiles)
	cropAPI.GET("/:id", handler.GetCropProfile)
	cropAPI.POST("", handler.CreateCropProfile)
	cropAPI.PUT("/:id", handler.UpdateCropProfile)
	cropAPI.DELETE("/:id", handler.DeleteCropProfile)

	// Order API routes
	orderAPI := e.Group("/api/orders", mid.AuthMiddleware)
	orderAPI.GET("", handler.ListOrders)
	orderAPI.GET("/:id", handler.GetOrder)
	orderAPI.POST("", handler.CreateOrder)
	orderAPI.PUT("/:id/status", handler.UpdateOrderStatus)
	orderAPI.PUT("/:id/items/:itemID", handler.UpdateOrderItem)
	orderAPI.DELETE("/:id", handler.DeleteOrder)

	// Task API routes
	taskAPI := e.Group("/api/tasks", mid.AuthMiddleware)
	taskAPI.GET("", handler.ListTasks)
	taskAPI.GET("/:id", handler.GetTask)
	taskAPI.POST("/:id/start", handler.StartTask)
	taskAPI.POST("/:id/complete", handler.CompleteTask)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
