package models

import (
	"time"

	"gorm.io/datatypes"
)

type Incident struct {
	BaseModel

	IncidentID string `gorm:"uniqueIndex;not null" json:"incident_id"`
	Type       string `gorm:"not null;index" json:"type"` // "Warning" or "Normal"
	Reason     string `gorm:"not null" json:"reason"`
	Message    string `json:"message"`

	InvolvedObjectKind string `gorm:"not null" json:"involved_object_kind"`
	InvolvedObjectName string `gorm:"not null" json:"involved_object_name"`
	Namespace          string `gorm:"index" json:"namespace"`

	SourceComponent    string `json:"source_component"`
	ReportingComponent string `json:"reporting_component"`

	Labels      datatypes.JSON `gorm:"type:jsonb" json:"labels,omitempty"`
	Annotations datatypes.JSON `gorm:"type:jsonb" json:"annotations,omitempty"`

	Count          int        `gorm:"not null;default:1" json:"count"`
	FirstTimestamp *time.Time `json:"first_timestamp"`
	LastTimestamp  *time.Time `json:"last_timestamp"`

	// Resolution metadata, mutated only by the orchestrator.
	IsResolved            bool       `gorm:"not null;default:false;index" json:"is_resolved"`
	ResolutionAttempts    int        `gorm:"not null;default:0" json:"resolution_attempts"`
	LastResolutionAttempt *time.Time `json:"last_resolution_attempt"`
	ExecutorID            *uint      `json:"executor_id"` // weak reference, no FK constraint
}
