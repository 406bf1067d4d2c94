package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kubemedic/kubemedic/internal/handlers"
	"github.com/kubemedic/kubemedic/internal/middleware"
	"github.com/kubemedic/kubemedic/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/ws/executions", middleware.AuthMiddleware(), handlers.ExecutionStream)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.CreateUser)
			auth.POST("/login", handlers.LoginUser)
			auth.POST("/logout", handlers.LogoutUser)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
		}

		protected := api.Group("", middleware.AuthMiddleware())
		{
			protected.GET("/health", handlers.HealthCheck)

			protected.GET("/incidents", handlers.ListIncidents)
			protected.POST("/incidents", handlers.IngestIncident)
			protected.POST("/incidents/:incident_id/remediate", handlers.RemediateIncident)
			protected.POST("/incidents/:incident_id/execute", handlers.ExecuteIncident)

			protected.GET("/executors", handlers.ListExecutors)
			protected.POST("/initialize", handlers.InitializeExecutors)
			protected.POST("/executors/:executor_id/activate", handlers.ActivateExecutor)
		}
	}

	return r
}
