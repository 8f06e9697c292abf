package output

import (
	"context"

	"research-agent/internal/domain/entity"
)

// ToolPort is an action the agent can call. Execute receives the raw JSON
// arguments from the model.
type ToolPort interface {
	Name() entity.ToolName
	Description() string
	// Parameters is a JSON schema object.
	Parameters() map[string]any
	Execute(ctx context.Context, arguments string) (string, error)
}

type ToolRegistry interface {
	Register(tool ToolPort)
	Unregister(name entity.ToolName)
	Get(name entity.ToolName) (ToolPort, bool)
	All() []ToolPort
	Definitions() []entity.ToolDefinition
}
