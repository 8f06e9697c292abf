package input

import "context"

// ExecuteResult is the outcome of one agent loop run.
type ExecuteResult struct {
	FinalAnswer string
	// Steps counts model calls, including the one that produced the answer.
	Steps int
}

type TaskExecutor interface {
	Execute(ctx context.Context, task string) (*ExecuteResult, error)
}
