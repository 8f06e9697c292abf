package service

import (
	"sort"
	"sync"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

type ToolRegistryImpl struct {
	mu       sync.RWMutex
	tools    map[entity.ToolName]output.ToolPort
	excluded map[entity.ToolName]bool
}

func NewToolRegistry(exclude ...string) *ToolRegistryImpl {
	excluded := make(map[entity.ToolName]bool, len(exclude))
	for _, name := range exclude {
		excluded[entity.ToolName(name)] = true
	}
	return &ToolRegistryImpl{
		tools:    make(map[entity.ToolName]output.ToolPort),
		excluded: excluded,
	}
}

// Register adds or replaces a tool. Excluded names are silently dropped.
func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.excluded[tool.Name()] {
		return
	}
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistryImpl) Unregister(name entity.ToolName) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns the registered tools ordered by name.
func (r *ToolRegistryImpl) All() []output.ToolPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]output.ToolPort, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	tools := r.All()
	result := make([]entity.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name().String(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}
