// Package stdio runs MCP tool servers as subprocesses speaking JSON-RPC
// over stdin/stdout.
package stdio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	clientName    = "research-agent"
	clientVersion = "1.0.0"
)

var (
	_ output.MCPClient        = (*Client)(nil)
	_ output.MCPClientFactory = (*Factory)(nil)

	ErrNotConnected = errors.New("mcp client not connected")
)

type Client struct {
	cfg    entity.MCPServerConfig
	logger output.LoggerPort

	mu     sync.Mutex
	client *client.Client
}

func NewClient(cfg entity.MCPServerConfig, logger output.LoggerPort) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// Connect starts the server process and performs the initialize handshake.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return nil
	}

	cli, err := client.NewStdioMCPClient(c.cfg.Command, environ(c.cfg.Env), c.cfg.Args...)
	if err != nil {
		return fmt.Errorf("start mcp server %s: %w", c.cfg.Name, err)
	}

	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}

	res, err := cli.Initialize(ctx, req)
	if err != nil {
		_ = cli.Close()
		return fmt.Errorf("initialize mcp server %s: %w", c.cfg.Name, err)
	}

	if c.logger != nil {
		c.logger.Info("MCP server initialized",
			"server", c.cfg.Name,
			"name", res.ServerInfo.Name,
			"version", res.ServerInfo.Version,
		)
	}
	c.client = cli
	return nil
}

func (c *Client) active() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client, nil
}

func (c *Client) ListTools(ctx context.Context) ([]entity.ToolDefinition, error) {
	cli, err := c.active()
	if err != nil {
		return nil, err
	}

	res, err := cli.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	defs := make([]entity.ToolDefinition, 0, len(res.Tools))
	for _, tool := range res.Tools {
		schema, err := inputSchema(tool)
		if err != nil {
			return nil, fmt.Errorf("tool %s schema: %w", tool.Name, err)
		}
		defs = append(defs, entity.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schema,
		})
	}
	return defs, nil
}

// inputSchema goes through the JSON form so raw schemas and structured
// ones come out the same way.
func inputSchema(tool mcp.Tool) (map[string]interface{}, error) {
	data, err := json.Marshal(tool)
	if err != nil {
		return nil, err
	}
	var wire struct {
		InputSchema map[string]interface{} `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}
	if wire.InputSchema == nil {
		wire.InputSchema = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}
	return wire.InputSchema, nil
}

func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	cli, err := c.active()
	if err != nil {
		return "", err
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = arguments

	res, err := cli.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	text := ResultText(res)
	if res.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", errors.New(text)
	}
	return text, nil
}

// ResultText joins the text parts of a tool result. Non-text parts are
// summarized by type.
func ResultText(res *mcp.CallToolResult) string {
	parts := make([]string, 0, len(res.Content))
	for _, content := range res.Content {
		if text, ok := mcp.AsTextContent(content); ok {
			parts = append(parts, text.Text)
			continue
		}
		if img, ok := mcp.AsImageContent(content); ok {
			parts = append(parts, fmt.Sprintf("[image %s]", img.MIMEType))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%T]", content))
	}
	return strings.Join(parts, "\n")
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	cli := c.client
	c.client = nil
	c.mu.Unlock()

	if cli == nil {
		return nil
	}
	if err := cli.Close(); err != nil {
		return fmt.Errorf("close mcp server %s: %w", c.cfg.Name, err)
	}
	return nil
}

// environ returns the parent environment with extra appended in key order.
func environ(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

type Factory struct {
	logger output.LoggerPort
}

func NewFactory(logger output.LoggerPort) *Factory {
	return &Factory{logger: logger}
}

func (f *Factory) NewClient(cfg entity.MCPServerConfig) (output.MCPClient, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("mcp server %s: command is required", cfg.Name)
	}
	return NewClient(cfg, f.logger), nil
}
