package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/kubemedic/kubemedic/internal/types"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = `You are a Kubernetes remediation assistant. Given a cluster incident,
produce a remediation plan as a single JSON object with this shape:
{
  "solution_summary": string,
  "detailed_solution": string,
  "steps": [
    {
      "step_id": int (1-based, sequential),
      "action_type": "DIAGNOSTIC" | "REMEDIATION" | "VERIFICATION" | "ROLLBACK",
      "description": string,
      "command": string (a single CLI command for the executor),
      "expected_outcome": string,
      "critical": bool,
      "timeout_seconds": int
    }
  ],
  "confidence_score": float between 0.0 and 1.0,
  "estimated_time_mins": int,
  "additional_notes": string
}
Respond with the JSON object only, no surrounding prose.`

// OpenAIGenerator produces remediation solutions through the OpenAI chat API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIGenerator(apiKey, model string, logger *zap.Logger) *OpenAIGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Generate asks the model for a remediation plan for the incident and parses
// the reply into a validated solution. Any transport or shape problem is
// returned as an error; the caller decides how the failed attempt is recorded.
func (g *OpenAIGenerator) Generate(ctx context.Context, incident *models.Incident, executorType string) (*types.RemediationSolution, error) {
	prompt := buildPrompt(incident, executorType)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	if err != nil {
		g.logger.Error("solution generation request failed",
			zap.String("incident_id", incident.IncidentID),
			zap.Error(err))
		return nil, fmt.Errorf("calling solution generator: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("solution generator returned no choices")
	}

	solution, err := parseSolution(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	solution.ExecutorType = executorType

	g.logger.Info("solution generated",
		zap.String("incident_id", incident.IncidentID),
		zap.Int("steps", len(solution.Steps)),
		zap.Float64("confidence", solution.ConfidenceScore))

	return solution, nil
}

func buildPrompt(incident *models.Incident, executorType string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Incident %s\n", incident.IncidentID)
	fmt.Fprintf(&b, "Type: %s\nReason: %s\nMessage: %s\n", incident.Type, incident.Reason, incident.Message)
	fmt.Fprintf(&b, "Involved object: %s/%s in namespace %s\n",
		incident.InvolvedObjectKind, incident.InvolvedObjectName, incident.Namespace)

	if incident.SourceComponent != "" {
		fmt.Fprintf(&b, "Source component: %s\n", incident.SourceComponent)
	}

	if incident.ReportingComponent != "" {
		fmt.Fprintf(&b, "Reporting component: %s\n", incident.ReportingComponent)
	}

	fmt.Fprintf(&b, "Occurrences: %d\n", incident.Count)

	if len(incident.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", string(incident.Labels))
	}

	if len(incident.Annotations) > 0 {
		fmt.Fprintf(&b, "Annotations: %s\n", string(incident.Annotations))
	}

	fmt.Fprintf(&b, "\nCommands must target the %q executor backend.\n", executorType)

	return b.String()
}

// parseSolution decodes the model reply and rejects malformed solutions before
// anything downstream can act on them.
func parseSolution(content string) (*types.RemediationSolution, error) {
	content = stripCodeFence(content)

	var solution types.RemediationSolution
	if err := json.Unmarshal([]byte(content), &solution); err != nil {
		return nil, fmt.Errorf("malformed solution JSON: %w", err)
	}

	if len(solution.Steps) == 0 {
		return nil, fmt.Errorf("malformed solution: no steps")
	}

	if solution.ConfidenceScore < 0 || solution.ConfidenceScore > 1 {
		return nil, fmt.Errorf("malformed solution: confidence score %.2f outside [0,1]", solution.ConfidenceScore)
	}

	seen := make(map[int]bool, len(solution.Steps))
	for _, step := range solution.Steps {
		if step.Command == "" {
			return nil, fmt.Errorf("malformed solution: step %d has no command", step.StepID)
		}
		if seen[step.StepID] {
			return nil, fmt.Errorf("malformed solution: duplicate step_id %d", step.StepID)
		}
		seen[step.StepID] = true
	}

	solution.Commands = make([]string, 0, len(solution.Steps))
	for _, step := range solution.Steps {
		solution.Commands = append(solution.Commands, step.Command)
	}

	return &solution, nil
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	return strings.TrimSpace(content)
}
