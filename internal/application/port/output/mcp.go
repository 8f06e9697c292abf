package output

import (
	"context"

	"research-agent/internal/domain/entity"
)

// MCPClient is a connection to a single MCP tool server.
type MCPClient interface {
	Connect(ctx context.Context) error
	ListTools(ctx context.Context) ([]entity.ToolDefinition, error)
	CallTool(ctx context.Context, name string, arguments map[string]any) (string, error)
	Disconnect(ctx context.Context) error
}

type MCPClientFactory interface {
	NewClient(cfg entity.MCPServerConfig) (MCPClient, error)
}
