package executors

// NewKubectlDispatcher dispatches commands to the kubectl CLI.
func NewKubectlDispatcher() Dispatcher {
	return &commandDispatcher{binary: "kubectl"}
}
