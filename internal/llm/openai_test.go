package llm

import (
	"testing"

	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSolution = `{
  "solution_summary": "Restart the crashing deployment",
  "detailed_solution": "The pod is in CrashLoopBackOff; restart the deployment and verify rollout.",
  "steps": [
    {"step_id": 1, "action_type": "DIAGNOSTIC", "description": "Inspect pod", "command": "kubectl describe pod web-0 -n default", "expected_outcome": "Reason visible", "critical": false, "timeout_seconds": 20},
    {"step_id": 2, "action_type": "REMEDIATION", "description": "Restart deployment", "command": "kubectl rollout restart deployment/web -n default", "expected_outcome": "Rollout begins", "critical": true, "timeout_seconds": 60}
  ],
  "confidence_score": 0.85,
  "estimated_time_mins": 5,
  "additional_notes": ""
}`

func TestParseSolution(t *testing.T) {
	solution, err := parseSolution(validSolution)
	require.NoError(t, err)

	assert.Equal(t, "Restart the crashing deployment", solution.SolutionSummary)
	assert.Len(t, solution.Steps, 2)
	assert.InDelta(t, 0.85, solution.ConfidenceScore, 0.001)
	assert.Equal(t, []string{
		"kubectl describe pod web-0 -n default",
		"kubectl rollout restart deployment/web -n default",
	}, solution.Commands)
}

func TestParseSolutionWithCodeFence(t *testing.T) {
	fenced := "```json\n" + validSolution + "\n```"

	solution, err := parseSolution(fenced)
	require.NoError(t, err)
	assert.Len(t, solution.Steps, 2)
}

func TestParseSolutionRejectsInvalidJSON(t *testing.T) {
	_, err := parseSolution("the cluster is on fire, restart everything")
	assert.Error(t, err)
}

func TestParseSolutionRejectsEmptySteps(t *testing.T) {
	_, err := parseSolution(`{"solution_summary": "noop", "steps": [], "confidence_score": 0.5}`)
	assert.Error(t, err)
}

func TestParseSolutionRejectsConfidenceOutOfRange(t *testing.T) {
	_, err := parseSolution(`{"steps": [{"step_id": 1, "command": "kubectl get pods"}], "confidence_score": 1.5}`)
	assert.Error(t, err)

	_, err = parseSolution(`{"steps": [{"step_id": 1, "command": "kubectl get pods"}], "confidence_score": -0.1}`)
	assert.Error(t, err)
}

func TestParseSolutionRejectsDuplicateStepIDs(t *testing.T) {
	_, err := parseSolution(`{"steps": [
		{"step_id": 1, "command": "kubectl get pods"},
		{"step_id": 1, "command": "kubectl get events"}
	], "confidence_score": 0.5}`)
	assert.Error(t, err)
}

func TestParseSolutionRejectsMissingCommand(t *testing.T) {
	_, err := parseSolution(`{"steps": [{"step_id": 1, "command": ""}], "confidence_score": 0.5}`)
	assert.Error(t, err)
}

func TestBuildPromptIncludesIncidentContext(t *testing.T) {
	incident := &models.Incident{
		IncidentID:         "evt-42",
		Type:               "Warning",
		Reason:             "BackOff",
		Message:            "Back-off restarting failed container",
		InvolvedObjectKind: "Pod",
		InvolvedObjectName: "web-0",
		Namespace:          "default",
		Count:              7,
		Labels:             []byte(`{"app":"web"}`),
	}

	prompt := buildPrompt(incident, models.ExecutorKubectl)

	assert.Contains(t, prompt, "evt-42")
	assert.Contains(t, prompt, "BackOff")
	assert.Contains(t, prompt, "Pod/web-0")
	assert.Contains(t, prompt, `{"app":"web"}`)
	assert.Contains(t, prompt, "kubectl")
}
