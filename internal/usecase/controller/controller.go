// Package controller assembles the action set available to a browser agent:
// the standard browser actions, ask_for_assistant and MCP tools.
package controller

import (
	"context"

	"research-agent/internal/adapter/tool"
	"research-agent/internal/application/port/output"
	"research-agent/internal/application/service"
	"research-agent/internal/domain/entity"
	"research-agent/internal/usecase/mcp"
)

type Config struct {
	// ExcludeActions are never registered, whatever their source.
	ExcludeActions []string
	// AskAssistant answers ask_for_assistant; nil makes the action decline.
	AskAssistant tool.AskFunc
	// MCPToolFilter limits the MCP tools registered by SetupMCP.
	MCPToolFilter []string
}

type Controller struct {
	registry   *service.ToolRegistryImpl
	mcpFactory output.MCPClientFactory
	logger     output.LoggerPort
	metrics    output.MetricsPort
	cfg        Config

	manager *mcp.Manager
}

func New(cfg Config, mcpFactory output.MCPClientFactory, logger output.LoggerPort, metrics output.MetricsPort) *Controller {
	c := &Controller{
		registry:   service.NewToolRegistry(cfg.ExcludeActions...),
		mcpFactory: mcpFactory,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
	c.registry.Register(tool.NewAskForAssistantTool(cfg.AskAssistant, logger))
	return c
}

func (c *Controller) Registry() output.ToolRegistry {
	return c.registry
}

func (c *Controller) RegisterTool(t output.ToolPort) {
	c.registry.Register(t)
}

// RegisterBrowserTools binds the standard browser actions to a session.
func (c *Controller) RegisterBrowserTools(browser output.BrowserPort) {
	for _, t := range tool.BrowserTools(browser, c.logger) {
		c.registry.Register(t)
	}
}

// SetupMCP connects the configured servers and registers their tools.
// Failures are logged; the agent keeps running without MCP tools.
func (c *Controller) SetupMCP(ctx context.Context, cfg entity.MCPConfig) {
	if cfg.Empty() {
		c.logger.Info("No MCP server configuration provided")
		return
	}
	if c.mcpFactory == nil {
		c.logger.Warn("MCP configuration ignored: no client factory")
		return
	}

	c.logger.Info("Setting up MCP servers")
	if c.manager == nil {
		c.manager = mcp.NewManager(c.mcpFactory, c.logger, c.metrics)
	}

	if !c.manager.SetupServers(ctx, cfg) {
		c.logger.Warn("Failed to set up MCP servers")
		return
	}

	count := c.manager.RegisterTools(ctx, c.registry, c.cfg.MCPToolFilter)
	c.logger.Info("MCP tools registered",
		"tools", count,
		"servers", c.manager.ConnectedServers(),
	)
}

// MCP returns the active manager, or nil before SetupMCP.
func (c *Controller) MCP() *mcp.Manager {
	return c.manager
}

// CloseMCP disconnects every MCP server and removes their tools.
func (c *Controller) CloseMCP(ctx context.Context) {
	if c.manager == nil {
		return
	}
	c.manager.DisconnectAll(ctx)
	c.manager = nil

	for _, t := range c.registry.All() {
		if entity.IsMCPTool(t.Name()) {
			c.registry.Unregister(t.Name())
		}
	}
	c.logger.Info("Closed all MCP connections")
}
