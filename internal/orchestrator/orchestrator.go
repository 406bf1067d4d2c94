package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kubemedic/kubemedic/internal/executors"
	"github.com/kubemedic/kubemedic/internal/models"
	"github.com/kubemedic/kubemedic/internal/registry"
	"github.com/kubemedic/kubemedic/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrIncidentNotFound      = errors.New("incident not found")
	ErrConcurrentRemediation = errors.New("a remediation attempt is already in flight for this incident")
)

// GenerationError wraps an unreachable or malformed reply from the solution
// generator. The triggering attempt still counts against the incident.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("solution generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// SolutionGenerator is the collaborator that turns an incident record into a
// structured remediation plan.
type SolutionGenerator interface {
	Generate(ctx context.Context, incident *models.Incident, executorType string) (*types.RemediationSolution, error)
}

// StepObserver receives per-step results while an execution is running.
type StepObserver func(incidentID string, result types.StepResult)

const DefaultGenerationTimeout = 2 * time.Minute

// Orchestrator drives an incident through the remediation state machine:
// generated -> executing -> completed_successfully | partially_completed |
// failed. It is the only writer of incident resolution fields.
type Orchestrator struct {
	db         *gorm.DB
	registry   *registry.Registry
	generator  SolutionGenerator
	runner     *executors.Runner
	logger     *zap.Logger
	genTimeout time.Duration
	observer   StepObserver

	mu       sync.Mutex
	inFlight map[uint]bool
}

func New(db *gorm.DB, reg *registry.Registry, generator SolutionGenerator, runner *executors.Runner, logger *zap.Logger, genTimeout time.Duration) *Orchestrator {
	if genTimeout <= 0 {
		genTimeout = DefaultGenerationTimeout
	}

	return &Orchestrator{
		db:         db,
		registry:   reg,
		generator:  generator,
		runner:     runner,
		logger:     logger,
		genTimeout: genTimeout,
		inFlight:   make(map[uint]bool),
	}
}

// SetStepObserver registers a callback for per-step results. Called once
// during wiring.
func (o *Orchestrator) SetStepObserver(observer StepObserver) {
	o.observer = observer
}

// Remediate generates a fresh solution for the incident and, when execute is
// true, runs it in the same attempt. Each call is one resolution attempt;
// a generator failure still counts, a caller cancellation does not.
func (o *Orchestrator) Remediate(ctx context.Context, incidentID uint, execute bool) (*types.RemediationResponse, error) {
	incident, err := o.loadIncident(incidentID)
	if err != nil {
		return nil, err
	}

	if err := o.acquire(incident.ID); err != nil {
		return nil, err
	}
	defer o.release(incident.ID)

	active, err := o.registry.ActiveExecutor()
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, executors.ErrNoActiveExecutor
	}

	solution, err := o.generate(ctx, incident, active.Name)
	if err != nil {
		if ctx.Err() != nil {
			// Caller abandoned the request; leave the incident untouched.
			return nil, ctx.Err()
		}
		if recordErr := o.recordAttempt(incident); recordErr != nil {
			o.logger.Error("failed to record remediation attempt",
				zap.String("incident_id", incident.IncidentID), zap.Error(recordErr))
		}
		return nil, &GenerationError{Err: err}
	}

	if err := o.recordAttempt(incident); err != nil {
		return nil, err
	}

	response := &types.RemediationResponse{
		IncidentID:      incident.IncidentID,
		Solution:        solution,
		ExecutionStatus: types.StatusGenerated,
		Timestamp:       time.Now(),
	}

	o.logger.Info("remediation solution ready",
		zap.String("incident_id", incident.IncidentID),
		zap.Int("attempt", incident.ResolutionAttempts),
		zap.Bool("execute", execute))

	if !execute {
		return response, nil
	}

	summary, err := o.runSteps(ctx, incident, active, solution.Steps)
	if err != nil {
		return nil, err
	}

	response.ExecutionStatus = summary.Status
	response.ExecutionResults = summary.Results

	return response, nil
}

// ExecuteSteps runs the given steps against the active executor as its own
// resolution attempt. When steps is empty a fresh solution is generated first,
// since solutions are never persisted between attempts.
func (o *Orchestrator) ExecuteSteps(ctx context.Context, incidentID uint, steps []types.RemediationStep) (*types.ExecutionSummary, error) {
	incident, err := o.loadIncident(incidentID)
	if err != nil {
		return nil, err
	}

	if err := o.acquire(incident.ID); err != nil {
		return nil, err
	}
	defer o.release(incident.ID)

	active, err := o.registry.ActiveExecutor()
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, executors.ErrNoActiveExecutor
	}

	if len(steps) == 0 {
		solution, err := o.generate(ctx, incident, active.Name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if recordErr := o.recordAttempt(incident); recordErr != nil {
				o.logger.Error("failed to record remediation attempt",
					zap.String("incident_id", incident.IncidentID), zap.Error(recordErr))
			}
			return nil, &GenerationError{Err: err}
		}
		steps = solution.Steps
	}

	if err := o.recordAttempt(incident); err != nil {
		return nil, err
	}

	return o.runSteps(ctx, incident, active, steps)
}

func (o *Orchestrator) loadIncident(incidentID uint) (*models.Incident, error) {
	var incident models.Incident

	if err := o.db.First(&incident, incidentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("loading incident %d: %w", incidentID, err)
	}

	return &incident, nil
}

func (o *Orchestrator) generate(ctx context.Context, incident *models.Incident, executorType string) (*types.RemediationSolution, error) {
	genCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()

	return o.generator.Generate(genCtx, incident, executorType)
}

// runSteps delegates to the Runner and folds the summary back into the
// incident: only a fully successful execution marks it resolved.
func (o *Orchestrator) runSteps(ctx context.Context, incident *models.Incident, active *models.Executor, steps []types.RemediationStep) (*types.ExecutionSummary, error) {
	var observe func(types.StepResult)
	if o.observer != nil {
		incidentID := incident.IncidentID
		observe = func(result types.StepResult) {
			o.observer(incidentID, result)
		}
	}

	summary, err := o.runner.Run(ctx, steps, active, observe)
	if err != nil {
		return nil, err
	}

	o.logger.Info("execution finished",
		zap.String("incident_id", incident.IncidentID),
		zap.String("status", summary.Status),
		zap.Int("successful_steps", summary.SuccessfulSteps),
		zap.Int("total_steps", summary.TotalSteps))

	if summary.Status == types.StatusCompletedSuccessfully {
		if err := o.db.Model(incident).Updates(map[string]interface{}{
			"is_resolved": true,
			"executor_id": active.ID,
		}).Error; err != nil {
			return nil, fmt.Errorf("marking incident resolved: %w", err)
		}
		incident.IsResolved = true
		incident.ExecutorID = &active.ID
	}

	return summary, nil
}

// recordAttempt bumps the monotonic attempt counter and timestamp.
func (o *Orchestrator) recordAttempt(incident *models.Incident) error {
	now := time.Now()

	if err := o.db.Model(incident).Updates(map[string]interface{}{
		"resolution_attempts":     gorm.Expr("resolution_attempts + ?", 1),
		"last_resolution_attempt": now,
	}).Error; err != nil {
		return fmt.Errorf("recording attempt for incident %s: %w", incident.IncidentID, err)
	}

	incident.ResolutionAttempts++
	incident.LastResolutionAttempt = &now

	return nil
}

func (o *Orchestrator) acquire(incidentID uint) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight[incidentID] {
		return ErrConcurrentRemediation
	}

	o.inFlight[incidentID] = true
	return nil
}

func (o *Orchestrator) release(incidentID uint) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.inFlight, incidentID)
}
