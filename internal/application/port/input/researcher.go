package input

import (
	"context"

	"research-agent/internal/domain/entity"
)

type Researcher interface {
	Research(ctx context.Context, query, outputDir string) (string, error)
	Stop()
	Stopped() bool
}

// BrowserTaskRunner runs one browser agent task to completion.
type BrowserTaskRunner interface {
	RunTask(ctx context.Context, task entity.BrowserTask) entity.BrowserTaskResult
}
