package handlers

import (
	"github.com/kubemedic/kubemedic/internal/orchestrator"
	"github.com/kubemedic/kubemedic/internal/registry"
	"go.uber.org/zap"
)

var (
	orch             *orchestrator.Orchestrator
	executorRegistry *registry.Registry
	logger           *zap.Logger
)

// Setup wires the handler package to its collaborators. Called once from main
// before the router is built.
func Setup(o *orchestrator.Orchestrator, r *registry.Registry, l *zap.Logger) {
	orch = o
	executorRegistry = r
	logger = l
}
