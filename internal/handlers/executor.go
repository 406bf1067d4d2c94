package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kubemedic/kubemedic/internal/registry"
	"github.com/kubemedic/kubemedic/internal/utils"
	"go.uber.org/zap"
)

func ListExecutors(ctx *gin.Context) {
	executors, err := executorRegistry.List()

	if err != nil {
		logger.Error("failed to list executors", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve executors"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"executors": executors})
}

// InitializeExecutors seeds the default executor rows. Safe to call more than
// once; an already-active executor keeps its status.
func InitializeExecutors(ctx *gin.Context) {
	executors, err := executorRegistry.InitializeDefaults()

	if err != nil {
		logger.Error("failed to initialize executors", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize executors"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"executors": executors})
}

func ActivateExecutor(ctx *gin.Context) {
	executorID, err := utils.GetExecutorID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	executor, err := executorRegistry.Activate(uint(executorID))

	if err != nil {
		if errors.Is(err, registry.ErrExecutorNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Executor not found"})
			return
		}
		logger.Error("failed to activate executor", zap.Uint64("executor_id", executorID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to activate executor"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"executor": executor})
}
