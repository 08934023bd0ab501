package api

import (
	"github.com/gin-gonic/gin"
	"github.com/vidhyasrikachapalayam/visionassist/internal/api/handler"
	"github.com/vidhyasrikachapalayam/visionassist/internal/api/middleware"
	"github.com/vidhyasrikachapalayam/visionassist/internal/config"
	"github.com/vidhyasrikachapalayam/visionassist/internal/logger"
	"github.com/vidhyasrikachapalayam/visionassist/internal/pipeline"
	"github.com/vidhyasrikachapalayam/visionassist/internal/repository"
	"github.com/vidhyasrikachapalayam/visionassist/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	store repository.FaceStore,
	controller *pipeline.Controller,
	routes *service.RouteService,
	notifier *service.Notifier,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	faceHandler := handler.NewFaceHandler(store, controller)
	cameraHandler := handler.NewCameraHandler(controller)
	routeHandler := handler.NewRouteHandler(routes)
	notificationHandler := handler.NewNotificationHandler(notifier)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Face identities
		v1.POST("/faces/register", faceHandler.RegisterFace)
		v1.GET("/faces", faceHandler.ListFaces)
		v1.GET("/faces/descriptors", faceHandler.ListDescriptors)
		v1.DELETE("/faces/:id", faceHandler.DeleteFace)

		// Camera session and detection loop
		v1.POST("/camera/start", cameraHandler.StartCamera)
		v1.POST("/camera/stop", cameraHandler.StopCamera)
		v1.POST("/detection/start", cameraHandler.StartDetection)
		v1.POST("/detection/stop", cameraHandler.StopDetection)
		v1.GET("/detection/annotations", cameraHandler.Annotations)

		// Navigation
		v1.POST("/route", routeHandler.GetRoute)

		// Notifications
		v1.GET("/notifications", notificationHandler.List)
		v1.POST("/notifications", notificationHandler.Notify)
		v1.DELETE("/notifications/:id", notificationHandler.Dismiss)
	}

	return r
}
