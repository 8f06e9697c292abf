package tool

import (
	"context"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ output.ToolPort = (*MCPTool)(nil)

// MCPTool exposes one tool of a connected MCP server as mcp_{server}_{tool}.
type MCPTool struct {
	client output.MCPClient
	server string
	def    entity.ToolDefinition
}

func NewMCPTool(client output.MCPClient, server string, def entity.ToolDefinition) *MCPTool {
	if def.Parameters == nil {
		def.Parameters = objectSchema(map[string]interface{}{})
	}
	return &MCPTool{client: client, server: server, def: def}
}

func (t *MCPTool) Name() entity.ToolName {
	return entity.MCPToolName(t.server, t.def.Name)
}

func (t *MCPTool) Description() string {
	return t.def.Description
}

func (t *MCPTool) Parameters() map[string]interface{} {
	return t.def.Parameters
}

func (t *MCPTool) Execute(ctx context.Context, args string) (string, error) {
	var input map[string]any
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	return t.client.CallTool(ctx, t.def.Name, input)
}
