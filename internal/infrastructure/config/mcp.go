// Package config loads file-based configuration.
package config

import (
	"fmt"
	"os"

	"research-agent/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// LoadMCPConfig reads an MCP server file. JSON is valid YAML, so both
// the usual mcpServers JSON documents and YAML files are accepted.
func LoadMCPConfig(path string) (entity.MCPConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.MCPConfig{}, fmt.Errorf("read mcp config: %w", err)
	}
	return ParseMCPConfig(data)
}

func ParseMCPConfig(data []byte) (entity.MCPConfig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entity.MCPConfig{}, fmt.Errorf("parse mcp config: %w", err)
	}
	return entity.ParseMCPConfig(raw), nil
}
