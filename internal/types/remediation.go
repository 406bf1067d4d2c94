package types

import "time"

// ExecutionStatus values for a remediation attempt. A solution starts out as
// "generated" and only moves to "executing" when execution is requested.
const (
	StatusGenerated             = "generated"
	StatusExecuting             = "executing"
	StatusCompletedSuccessfully = "completed_successfully"
	StatusPartiallyCompleted    = "partially_completed"
	StatusFailed                = "failed"
)

// Action types for a remediation step. The set is open to extension; the
// generator is prompted to stick to these.
const (
	ActionDiagnostic   = "DIAGNOSTIC"
	ActionRemediation  = "REMEDIATION"
	ActionVerification = "VERIFICATION"
	ActionRollback     = "ROLLBACK"
)

type RemediationStep struct {
	StepID          int    `json:"step_id"`
	ActionType      string `json:"action_type"`
	Description     string `json:"description"`
	Command         string `json:"command"`
	ExpectedOutcome string `json:"expected_outcome"`
	Critical        bool   `json:"critical"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

type RemediationSolution struct {
	SolutionSummary   string            `json:"solution_summary"`
	DetailedSolution  string            `json:"detailed_solution"`
	Steps             []RemediationStep `json:"steps"`
	ConfidenceScore   float64           `json:"confidence_score"`
	EstimatedTimeMins int               `json:"estimated_time_mins"`
	AdditionalNotes   string            `json:"additional_notes"`
	ExecutorType      string            `json:"executor_type"`
	Commands          []string          `json:"commands"`
}

type StepResult struct {
	StepID     int    `json:"step_id"`
	Success    bool   `json:"success"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

type ExecutionSummary struct {
	Status          string       `json:"execution_status"`
	Results         []StepResult `json:"results"`
	SuccessfulSteps int          `json:"successful_steps"`
	TotalSteps      int          `json:"total_steps"`
}

// RemediationResponse binds an incident to a generated solution and the
// outcome of any execution that was folded into the same attempt.
type RemediationResponse struct {
	IncidentID       string               `json:"incident_id"`
	Solution         *RemediationSolution `json:"solution"`
	ExecutionStatus  string               `json:"execution_status"`
	ExecutionResults []StepResult         `json:"execution_results,omitempty"`
	Timestamp        time.Time            `json:"timestamp"`
}
