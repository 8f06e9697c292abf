// Package mcp manages connections to MCP tool servers and exposes their
// tools to an agent tool registry.
package mcp

import (
	"context"
	"sync"

	"research-agent/internal/adapter/tool"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

type Manager struct {
	factory output.MCPClientFactory
	logger  output.LoggerPort
	metrics output.MetricsPort

	mu        sync.Mutex
	clients   map[string]output.MCPClient
	connected []string
}

func NewManager(factory output.MCPClientFactory, logger output.LoggerPort, metrics output.MetricsPort) *Manager {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Manager{
		factory: factory,
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]output.MCPClient),
	}
}

// SetupServers replaces all current connections with the servers in cfg.
// It reports whether at least one server connected.
func (m *Manager) SetupServers(ctx context.Context, cfg entity.MCPConfig) bool {
	if cfg.Empty() {
		m.logger.Warn("No MCP server configuration provided")
		return false
	}

	m.logger.Info("Setting up MCP servers", "count", len(cfg.Servers))
	m.DisconnectAll(ctx)

	for _, server := range cfg.Servers {
		if server.Command == "" {
			m.logger.Warn("No command specified for MCP server, skipping", "server", server.Name)
			continue
		}

		log := m.logger.WithField("server", server.Name)
		log.Info("Creating MCP client", "command", server.Command)

		client, err := m.factory.NewClient(server)
		if err != nil {
			log.Error("Failed to create MCP client", "error", err)
			continue
		}
		if err := client.Connect(ctx); err != nil {
			log.Error("Failed to connect MCP server", "error", err)
			continue
		}

		m.mu.Lock()
		m.clients[server.Name] = client
		m.connected = append(m.connected, server.Name)
		m.mu.Unlock()

		log.Info("Connected to MCP server")
	}

	servers := m.ConnectedServers()
	m.metrics.MCPServersConnected(len(servers))
	m.logger.Info("MCP setup finished", "connected", servers)
	return len(servers) > 0
}

// RegisterTools adds every tool of every connected server to registry as
// mcp_{server}_{tool}. A non-empty filter keeps only the named tools.
// It returns the number of tools registered.
func (m *Manager) RegisterTools(ctx context.Context, registry output.ToolRegistry, filter []string) int {
	allowed := make(map[string]bool, len(filter))
	for _, name := range filter {
		allowed[name] = true
	}

	total := 0
	for _, name := range m.ConnectedServers() {
		m.mu.Lock()
		client := m.clients[name]
		m.mu.Unlock()
		if client == nil {
			continue
		}

		defs, err := client.ListTools(ctx)
		if err != nil {
			m.logger.Error("Failed to list MCP tools", "server", name, "error", err)
			continue
		}

		count := 0
		for _, def := range defs {
			if len(allowed) > 0 && !allowed[def.Name] {
				continue
			}
			registry.Register(tool.NewMCPTool(client, name, def))
			count++
		}
		m.logger.Info("Registered MCP tools", "server", name, "count", count)
		total += count
	}
	return total
}

// DisconnectAll closes every client. Errors are logged, not returned.
func (m *Manager) DisconnectAll(ctx context.Context) {
	m.mu.Lock()
	clients := m.clients
	order := m.connected
	m.clients = make(map[string]output.MCPClient)
	m.connected = nil
	m.mu.Unlock()
	m.metrics.MCPServersConnected(0)

	for _, name := range order {
		if err := clients[name].Disconnect(ctx); err != nil {
			m.logger.Error("Error disconnecting MCP server", "server", name, "error", err)
			continue
		}
		m.logger.Info("Disconnected from MCP server", "server", name)
	}
}

func (m *Manager) ConnectedServers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.connected...)
}

func (m *Manager) IsConnected(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.clients[name]
	return ok
}
