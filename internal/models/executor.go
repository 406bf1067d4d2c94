package models

import (
	"gorm.io/datatypes"
)

const (
	ExecutorKubectl    = "kubectl"
	ExecutorArgoCD     = "argocd"
	ExecutorCrossplane = "crossplane"

	ExecutorStatusActive   = "active"
	ExecutorStatusInactive = "inactive"
)

// ExecutorNames is the closed set of supported backends.
var ExecutorNames = []string{ExecutorKubectl, ExecutorArgoCD, ExecutorCrossplane}

type Executor struct {
	BaseModel

	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Status      string         `gorm:"not null;default:inactive" json:"status"`
	Description string         `json:"description"`
	Config      datatypes.JSON `gorm:"type:jsonb" json:"config,omitempty"`
}

func (e *Executor) IsActive() bool {
	return e.Status == ExecutorStatusActive
}
