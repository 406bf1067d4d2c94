package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kubemedic/kubemedic/db"
	"github.com/kubemedic/kubemedic/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type IngestIncidentRequest struct {
	IncidentID         string            `json:"incident_id"`
	Type               string            `json:"type" binding:"required,oneof=Warning Normal"`
	Reason             string            `json:"reason" binding:"required"`
	Message            string            `json:"message"`
	InvolvedObjectKind string            `json:"involved_object_kind" binding:"required"`
	InvolvedObjectName string            `json:"involved_object_name" binding:"required"`
	Namespace          string            `json:"namespace"`
	SourceComponent    string            `json:"source_component"`
	ReportingComponent string            `json:"reporting_component"`
	Labels             map[string]string `json:"labels"`
	Annotations        map[string]string `json:"annotations"`
	Count              int               `json:"count"`
	FirstTimestamp     *time.Time        `json:"first_timestamp"`
	LastTimestamp      *time.Time        `json:"last_timestamp"`
}

// ListIncidents returns a page of incidents. Type, namespace and resolved
// filters are applied in SQL; free-text search only filters the returned page,
// so matches outside the current page are not reported. The total reflects the
// structured filters, not the search term.
func ListIncidents(ctx *gin.Context) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	perPage, err := strconv.Atoi(ctx.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))
	if err != nil || perPage < 1 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid per_page"})
		return
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}

	query := db.DB.Model(&models.Incident{})

	if incidentType := ctx.Query("incident_type"); incidentType != "" {
		query = query.Where("type = ?", incidentType)
	}

	if namespace := ctx.Query("namespace"); namespace != "" {
		query = query.Where("namespace = ?", namespace)
	}

	if resolvedStr := ctx.Query("resolved"); resolvedStr != "" {
		resolved, err := strconv.ParseBool(resolvedStr)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resolved filter"})
			return
		}
		query = query.Where("is_resolved = ?", resolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("failed to count incidents", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	var incidents []models.Incident
	if err := query.
		Order("id DESC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&incidents).Error; err != nil {
		logger.Error("failed to list incidents", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve incidents"})
		return
	}

	if search := ctx.Query("search"); search != "" {
		incidents = searchIncidents(incidents, search)
	}

	if incidents == nil {
		incidents = []models.Incident{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"incidents": incidents,
		"total":     total,
	})
}

func searchIncidents(incidents []models.Incident, search string) []models.Incident {
	search = strings.ToLower(search)

	matched := make([]models.Incident, 0, len(incidents))
	for _, incident := range incidents {
		haystacks := []string{
			incident.Reason,
			incident.Message,
			incident.InvolvedObjectName,
			incident.Namespace,
			incident.InvolvedObjectKind,
			incident.SourceComponent,
			incident.ReportingComponent,
		}

		for _, haystack := range haystacks {
			if strings.Contains(strings.ToLower(haystack), search) {
				matched = append(matched, incident)
				break
			}
		}
	}

	return matched
}

// IngestIncident upserts an incident occurrence posted by the event forwarder.
// A repeat occurrence bumps count and last_timestamp; resolution fields belong
// to the orchestrator and are never touched here.
func IngestIncident(ctx *gin.Context) {
	var req IngestIncidentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.IncidentID != "" {
		var existing models.Incident

		err := db.DB.Where("incident_id = ?", req.IncidentID).First(&existing).Error
		if err == nil {
			increment := req.Count
			if increment <= 0 {
				increment = 1
			}

			lastTimestamp := req.LastTimestamp
			if lastTimestamp == nil {
				now := time.Now()
				lastTimestamp = &now
			}

			updates := map[string]interface{}{
				"count":          gorm.Expr("count + ?", increment),
				"last_timestamp": lastTimestamp,
			}
			if req.Message != "" {
				updates["message"] = req.Message
			}

			if err := db.DB.Model(&existing).Updates(updates).Error; err != nil {
				logger.Error("failed to update incident occurrence", zap.Error(err))
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update incident"})
				return
			}

			if err := db.DB.First(&existing, existing.ID).Error; err != nil {
				logger.Error("failed to reload incident", zap.Error(err))
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update incident"})
				return
			}

			ctx.JSON(http.StatusOK, gin.H{"incident": existing})
			return
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("failed to look up incident", zap.Error(err))
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create incident"})
			return
		}
	}

	incident := models.Incident{
		IncidentID:         req.IncidentID,
		Type:               req.Type,
		Reason:             req.Reason,
		Message:            req.Message,
		InvolvedObjectKind: req.InvolvedObjectKind,
		InvolvedObjectName: req.InvolvedObjectName,
		Namespace:          req.Namespace,
		SourceComponent:    req.SourceComponent,
		ReportingComponent: req.ReportingComponent,
		Count:              req.Count,
		FirstTimestamp:     req.FirstTimestamp,
		LastTimestamp:      req.LastTimestamp,
	}

	if incident.IncidentID == "" {
		incident.IncidentID = uuid.NewString()
	}

	if incident.Count <= 0 {
		incident.Count = 1
	}

	if len(req.Labels) > 0 {
		labels, err := json.Marshal(req.Labels)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid labels"})
			return
		}
		incident.Labels = labels
	}

	if len(req.Annotations) > 0 {
		annotations, err := json.Marshal(req.Annotations)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid annotations"})
			return
		}
		incident.Annotations = annotations
	}

	if err := db.DB.Create(&incident).Error; err != nil {
		logger.Error("failed to create incident", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create incident"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"incident": incident})
}
