package registry

import (
	"errors"
	"fmt"

	"github.com/kubemedic/kubemedic/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrExecutorNotFound = errors.New("executor not found")

var defaultDescriptions = map[string]string{
	models.ExecutorKubectl:    "Applies remediation commands directly with kubectl",
	models.ExecutorArgoCD:     "Drives remediation through Argo CD CLI operations",
	models.ExecutorCrossplane: "Applies Crossplane claim changes through kubectl",
}

// Registry owns the executor records. Activation is the only write path for
// the status column, so the one-active-executor invariant lives here and
// nowhere else.
type Registry struct {
	db     *gorm.DB
	logger *zap.Logger
}

func New(db *gorm.DB, logger *zap.Logger) *Registry {
	return &Registry{db: db, logger: logger}
}

// List returns all known executors in stable id order.
func (r *Registry) List() ([]models.Executor, error) {
	var executors []models.Executor

	if err := r.db.Order("id").Find(&executors).Error; err != nil {
		return nil, fmt.Errorf("listing executors: %w", err)
	}

	return executors, nil
}

// InitializeDefaults idempotently ensures a row exists for every supported
// backend. Existing rows are left untouched, including an active one.
func (r *Registry) InitializeDefaults() ([]models.Executor, error) {
	for _, name := range models.ExecutorNames {
		executor := models.Executor{
			Name:        name,
			Status:      models.ExecutorStatusInactive,
			Description: defaultDescriptions[name],
		}

		if err := r.db.Where("name = ?", name).FirstOrCreate(&executor).Error; err != nil {
			return nil, fmt.Errorf("seeding executor %q: %w", name, err)
		}
	}

	return r.List()
}

// Activate marks the target executor active and every other executor inactive
// in a single transaction, so there is no window with two active executors.
func (r *Registry) Activate(id uint) (*models.Executor, error) {
	var target models.Executor

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&target, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExecutorNotFound
			}
			return err
		}

		if err := tx.Model(&models.Executor{}).
			Where("id <> ?", id).
			Where("status = ?", models.ExecutorStatusActive).
			Update("status", models.ExecutorStatusInactive).Error; err != nil {
			return err
		}

		if err := tx.Model(&target).
			Update("status", models.ExecutorStatusActive).Error; err != nil {
			return err
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	r.logger.Info("executor activated",
		zap.Uint("executor_id", target.ID),
		zap.String("name", target.Name))

	return &target, nil
}

// ActiveExecutor returns the currently active executor, or nil when no
// executor is active.
func (r *Registry) ActiveExecutor() (*models.Executor, error) {
	var executor models.Executor

	err := r.db.Where("status = ?", models.ExecutorStatusActive).First(&executor).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading active executor: %w", err)
	}

	return &executor, nil
}
