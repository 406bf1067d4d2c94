package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetIncidentID(ctx *gin.Context) (uint64, error) {
	var err error

	incidentIDStr := ctx.Param("incident_id")

	if incidentIDStr == "" {
		return 0, errors.New("Incident ID not found")
	}

	incidentID, err := strconv.ParseUint(incidentIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Incident ID")
	}

	return incidentID, nil
}

func GetExecutorID(ctx *gin.Context) (uint64, error) {
	var err error

	executorIDStr := ctx.Param("executor_id")

	if executorIDStr == "" {
		return 0, errors.New("Executor ID not found")
	}

	executorID, err := strconv.ParseUint(executorIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Executor ID")
	}

	return executorID, nil
}
