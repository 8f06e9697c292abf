package service

import (
	"context"
	"testing"

	"research-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name entity.ToolName
}

func (s stubTool) Name() entity.ToolName { return s.name }
func (s stubTool) Description() string   { return "stub " + s.name.String() }
func (s stubTool) Parameters() map[string]interface{} {
	return map[string]interface{}{"type": "object"}
}
func (s stubTool) Execute(ctx context.Context, arguments string) (string, error) {
	return arguments, nil
}

func TestToolRegistry_RegisterAndGet(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "click"})

	tool, ok := r.Get("click")
	require.True(t, ok)
	assert.Equal(t, entity.ToolName("click"), tool.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestToolRegistry_ExcludedActionsAreDropped(t *testing.T) {
	r := NewToolRegistry("screenshot")
	r.Register(stubTool{name: "screenshot"})
	r.Register(stubTool{name: "navigate"})

	_, ok := r.Get("screenshot")
	assert.False(t, ok)
	assert.Len(t, r.All(), 1)
}

func TestToolRegistry_DefinitionsAreSorted(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "scroll"})
	r.Register(stubTool{name: "click"})
	r.Register(stubTool{name: "navigate"})

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "click", defs[0].Name)
	assert.Equal(t, "navigate", defs[1].Name)
	assert.Equal(t, "scroll", defs[2].Name)
	assert.Equal(t, "stub click", defs[0].Description)
}

func TestToolRegistry_Unregister(t *testing.T) {
	r := NewToolRegistry()
	r.Register(stubTool{name: "mcp_files_read"})
	r.Unregister("mcp_files_read")

	assert.Empty(t, r.All())
}
