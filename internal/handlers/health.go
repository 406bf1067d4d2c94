package handlers

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kubemedic/kubemedic/db"
)

func HealthCheck(c *gin.Context) {
	status := "ok"

	database := "connected"
	sqlDB, err := db.DB.DB()
	if err != nil || sqlDB.Ping() != nil {
		database = "error"
		status = "degraded"
	}

	llmService := "configured"
	if os.Getenv("OPENAI_API_KEY") == "" {
		llmService = "not_configured"
	}

	activeExecutor := ""
	if executorRegistry != nil {
		if active, err := executorRegistry.ActiveExecutor(); err == nil && active != nil {
			activeExecutor = active.Name
		}
	}

	c.JSON(200, gin.H{
		"status":          status,
		"database":        database,
		"llm_service":     llmService,
		"active_executor": activeExecutor,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}
