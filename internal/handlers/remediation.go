package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kubemedic/kubemedic/internal/executors"
	"github.com/kubemedic/kubemedic/internal/orchestrator"
	"github.com/kubemedic/kubemedic/internal/types"
	"github.com/kubemedic/kubemedic/internal/utils"
	"go.uber.org/zap"
)

type RemediateRequest struct {
	IncidentID   string `json:"incident_id"`
	ExecutorType string `json:"executor_type"`
}

type ExecuteRequest struct {
	ExecutorType string                  `json:"executor_type"`
	Steps        []types.RemediationStep `json:"steps"`
}

// RemediateIncident generates a remediation solution for the incident, and
// executes it in the same request when ?execute=true.
func RemediateIncident(ctx *gin.Context) {
	incidentID, err := utils.GetIncidentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	execute, err := strconv.ParseBool(ctx.DefaultQuery("execute", "false"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid execute flag"})
		return
	}

	// Body is advisory; executor selection always comes from the registry.
	var req RemediateRequest
	_ = ctx.ShouldBindJSON(&req)

	response, err := orch.Remediate(ctx.Request.Context(), uint(incidentID), execute)

	if err != nil {
		respondRemediationError(ctx, incidentID, err)
		return
	}

	ctx.JSON(http.StatusOK, response)
}

// ExecuteIncident runs remediation steps for the incident. When the body
// carries no steps a fresh solution is generated first.
func ExecuteIncident(ctx *gin.Context) {
	incidentID, err := utils.GetIncidentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req ExecuteRequest
	_ = ctx.ShouldBindJSON(&req)

	summary, err := orch.ExecuteSteps(ctx.Request.Context(), uint(incidentID), req.Steps)

	if err != nil {
		respondRemediationError(ctx, incidentID, err)
		return
	}

	ctx.JSON(http.StatusOK, summary)
}

func respondRemediationError(ctx *gin.Context, incidentID uint64, err error) {
	var genErr *orchestrator.GenerationError

	switch {
	case errors.Is(err, orchestrator.ErrIncidentNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Incident not found"})
	case errors.Is(err, executors.ErrNoActiveExecutor):
		ctx.JSON(http.StatusConflict, gin.H{"error": "No active executor; activate one before remediating"})
	case errors.Is(err, orchestrator.ErrConcurrentRemediation):
		ctx.JSON(http.StatusConflict, gin.H{"error": "A remediation attempt is already in flight for this incident"})
	case errors.As(err, &genErr):
		logger.Warn("solution generation failed",
			zap.Uint64("incident_id", incidentID), zap.Error(err))
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		logger.Error("remediation failed",
			zap.Uint64("incident_id", incidentID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Remediation failed"})
	}
}
