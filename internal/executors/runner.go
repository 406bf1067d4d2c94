package executors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/kubemedic/kubemedic/internal/types"
	"go.uber.org/zap"
)

var ErrNoActiveExecutor = errors.New("no active executor")

const DefaultStepTimeout = 30 * time.Second

// Runner executes an ordered list of remediation steps against one backend.
// Steps run strictly in ascending step_id order; later steps may depend on
// earlier side effects, so they are never parallelized.
type Runner struct {
	dispatchers    map[string]Dispatcher
	defaultTimeout time.Duration
	logger         *zap.Logger
}

func NewRunner(logger *zap.Logger, defaultTimeout time.Duration) *Runner {
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultStepTimeout
	}

	return &Runner{
		dispatchers:    make(map[string]Dispatcher),
		defaultTimeout: defaultTimeout,
		logger:         logger,
	}
}

// Register binds a backend name to a dispatcher. Called during wiring, before
// any execution starts.
func (r *Runner) Register(name string, dispatcher Dispatcher) {
	r.dispatchers[name] = dispatcher
}

// Run executes steps against the given executor and aggregates per-step
// results. A failing critical step aborts the remaining steps and fails the
// summary; non-critical failures are recorded and execution continues. The
// observe callback, when non-nil, receives each result as it is produced.
func (r *Runner) Run(ctx context.Context, steps []types.RemediationStep, executor *models.Executor, observe func(types.StepResult)) (*types.ExecutionSummary, error) {
	if executor == nil {
		return nil, ErrNoActiveExecutor
	}

	dispatcher, ok := r.dispatchers[executor.Name]
	if !ok {
		return nil, fmt.Errorf("no dispatcher registered for backend %q", executor.Name)
	}

	ordered := make([]types.RemediationStep, len(steps))
	copy(ordered, steps)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StepID < ordered[j].StepID
	})

	summary := &types.ExecutionSummary{TotalSteps: len(ordered)}
	criticalFailure := false
	cancelled := false

	for _, step := range ordered {
		if ctx.Err() != nil {
			result := types.StepResult{StepID: step.StepID, Error: "cancelled"}
			summary.Results = append(summary.Results, result)
			if observe != nil {
				observe(result)
			}
			cancelled = true
			break
		}

		result := r.runStep(ctx, dispatcher, step)
		summary.Results = append(summary.Results, result)

		if observe != nil {
			observe(result)
		}

		if result.Success {
			summary.SuccessfulSteps++
			continue
		}

		if result.Error == "cancelled" {
			cancelled = true
			break
		}

		r.logger.Warn("remediation step failed",
			zap.Int("step_id", step.StepID),
			zap.Bool("critical", step.Critical),
			zap.String("error", result.Error))

		if step.Critical {
			criticalFailure = true
			break
		}
	}

	switch {
	case criticalFailure || cancelled:
		summary.Status = types.StatusFailed
	case summary.SuccessfulSteps == summary.TotalSteps:
		summary.Status = types.StatusCompletedSuccessfully
	default:
		summary.Status = types.StatusPartiallyCompleted
	}

	return summary, nil
}

func (r *Runner) runStep(ctx context.Context, dispatcher Dispatcher, step types.RemediationStep) types.StepResult {
	timeout := r.defaultTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}

	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	output, err := dispatcher.Dispatch(stepCtx, step.Command)
	duration := time.Since(start)

	result := types.StepResult{
		StepID:     step.StepID,
		Output:     output,
		DurationMs: duration.Milliseconds(),
	}

	switch {
	case err == nil:
		result.Success = true
	case ctx.Err() == context.Canceled:
		result.Error = "cancelled"
	case errors.Is(stepCtx.Err(), context.DeadlineExceeded):
		result.Error = "timeout"
	default:
		result.Error = err.Error()
	}

	return result
}
