package output

import (
	"context"
	"errors"

	"research-agent/internal/domain/entity"
)

var ErrRunNotFound = errors.New("research run not found")

// RunRepository persists research run records.
type RunRepository interface {
	Create(ctx context.Context, run *entity.ResearchRun) error
	Update(ctx context.Context, run *entity.ResearchRun) error
	// Get returns ErrRunNotFound for unknown IDs.
	Get(ctx context.Context, id string) (*entity.ResearchRun, error)
	List(ctx context.Context, limit int) ([]entity.ResearchRun, error)
}
