package executors

// NewCrossplaneDispatcher dispatches commands for the Crossplane backend.
// Crossplane claims are plain Kubernetes objects, so changes are applied
// through kubectl.
func NewCrossplaneDispatcher() Dispatcher {
	return &commandDispatcher{binary: "kubectl"}
}
