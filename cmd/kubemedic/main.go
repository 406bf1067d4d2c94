package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kubemedic/kubemedic/db"
	"github.com/kubemedic/kubemedic/internal/auth"
	"github.com/kubemedic/kubemedic/internal/executors"
	"github.com/kubemedic/kubemedic/internal/handlers"
	"github.com/kubemedic/kubemedic/internal/llm"
	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/kubemedic/kubemedic/internal/orchestrator"
	"github.com/kubemedic/kubemedic/internal/registry"
	"github.com/kubemedic/kubemedic/internal/router"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := auth.InitJWTSecret(); err != nil {
		logger.Fatal("jwt secret missing", zap.Error(err))
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	if err := db.ConnectDatabase(dsn); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.MigrateDatabase(); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	executorRegistry := registry.New(db.DB, logger)
	if _, err := executorRegistry.InitializeDefaults(); err != nil {
		logger.Fatal("failed to seed executors", zap.Error(err))
	}

	runner := executors.NewRunner(logger, envSeconds("STEP_TIMEOUT_SECONDS", executors.DefaultStepTimeout))
	runner.Register(models.ExecutorKubectl, executors.NewKubectlDispatcher())
	runner.Register(models.ExecutorArgoCD, executors.NewArgoCDDispatcher())
	runner.Register(models.ExecutorCrossplane, executors.NewCrossplaneDispatcher())

	generator := llm.NewOpenAIGenerator(os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"), logger)

	orch := orchestrator.New(db.DB, executorRegistry, generator, runner, logger,
		envSeconds("GENERATION_TIMEOUT_SECONDS", orchestrator.DefaultGenerationTimeout))
	orch.SetStepObserver(handlers.BroadcastStepResult)

	handlers.Setup(orch, executorRegistry, logger)

	r := router.NewRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		logger.Info("PORT not set, defaulting to 8080")
	}

	if err := r.Run(":" + port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}
