package executors

// NewArgoCDDispatcher dispatches commands to the argocd CLI.
func NewArgoCDDispatcher() Dispatcher {
	return &commandDispatcher{binary: "argocd"}
}
