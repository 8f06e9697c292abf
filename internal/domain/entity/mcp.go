package entity

import "sort"

// MCPServerConfig describes a subprocess-based MCP tool server.
type MCPServerConfig struct {
	Name    string            `json:"-" yaml:"-"`
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// MCPConfig holds server entries sorted by name.
type MCPConfig struct {
	Servers []MCPServerConfig
}

func (c MCPConfig) Empty() bool {
	return len(c.Servers) == 0
}

// ParseMCPConfig accepts either {"mcpServers": {...}} or the bare server map.
func ParseMCPConfig(raw map[string]any) MCPConfig {
	servers := raw
	if nested, ok := raw["mcpServers"].(map[string]any); ok {
		servers = nested
	}

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := MCPConfig{}
	for _, name := range names {
		entry, ok := servers[name].(map[string]any)
		if !ok {
			continue
		}

		server := MCPServerConfig{Name: name}
		server.Command, _ = entry["command"].(string)
		server.Args = toStrings(entry["args"])

		if env, ok := entry["env"].(map[string]any); ok {
			server.Env = make(map[string]string, len(env))
			for k, v := range env {
				if s, ok := v.(string); ok {
					server.Env[k] = s
				}
			}
		}

		cfg.Servers = append(cfg.Servers, server)
	}
	return cfg
}
