package stdio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/logger"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverEnv makes the test binary act as an MCP server on stdio.
const serverEnv = "STDIO_CLIENT_TEST_SERVER"

func TestMain(m *testing.M) {
	if os.Getenv(serverEnv) == "1" {
		if err := server.ServeStdio(newEchoServer()); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func newEchoServer() *server.MCPServer {
	s := server.NewMCPServer("echo-server", "0.1.0")

	s.AddTool(mcp.NewTool("echo",
		mcp.WithDescription("Echo text back"),
		mcp.WithString("text", mcp.Required()),
	), func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return nil, err
		}
		var args struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(args.Text), nil
	})

	s.AddTool(mcp.NewTool("fail", mcp.WithDescription("Always fails")),
		func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultError("upstream unavailable"), nil
		})
	return s
}

func TestResultText(t *testing.T) {
	res := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("first"),
			mcp.NewTextContent("second"),
			mcp.NewImageContent("aGk=", "image/png"),
		},
	}

	assert.Equal(t, "first\nsecond\n[image image/png]", ResultText(res))
}

func TestInputSchema(t *testing.T) {
	tool := mcp.NewTool("add",
		mcp.WithDescription("Add two numbers"),
		mcp.WithNumber("a", mcp.Required()),
		mcp.WithNumber("b", mcp.Required()),
	)

	schema, err := inputSchema(tool)
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	props, ok := schema["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.ElementsMatch(t, []interface{}{"a", "b"}, schema["required"])
}

func TestEnviron(t *testing.T) {
	t.Setenv("PARENT_VAR", "kept")

	env := environ(map[string]string{"B": "2", "A": "1"})

	assert.Contains(t, env, "PARENT_VAR=kept")
	joined := strings.Join(env, "\n")
	assert.True(t, strings.HasSuffix(joined, "A=1\nB=2"))
}

func TestClient_NotConnected(t *testing.T) {
	c := NewClient(entity.MCPServerConfig{Name: "x", Command: "true"}, nil)

	_, err := c.ListTools(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = c.CallTool(context.Background(), "add", nil)
	assert.ErrorIs(t, err, ErrNotConnected)

	assert.NoError(t, c.Disconnect(context.Background()))
}

func TestFactory_RequiresCommand(t *testing.T) {
	f := NewFactory(nil)

	_, err := f.NewClient(entity.MCPServerConfig{Name: "empty"})
	assert.Error(t, err)

	c, err := f.NewClient(entity.MCPServerConfig{Name: "ok", Command: "uvx"})
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestClient_StdioRoundTrip(t *testing.T) {
	c := NewClient(entity.MCPServerConfig{
		Name:    "echo",
		Command: os.Args[0],
		Args:    []string{"-test.run=^$"},
		Env:     map[string]string{serverEnv: "1"},
	}, logger.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Connect(ctx), "second connect is a no-op")

	defs, err := c.ListTools(ctx)
	require.NoError(t, err)
	byName := make(map[string]entity.ToolDefinition, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}
	require.Contains(t, byName, "echo")
	require.Contains(t, byName, "fail")
	assert.Equal(t, "Echo text back", byName["echo"].Description)
	props, ok := byName["echo"].Parameters["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "text")

	out, err := c.CallTool(ctx, "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	_, err = c.CallTool(ctx, "fail", map[string]any{})
	assert.EqualError(t, err, "upstream unavailable")

	require.NoError(t, c.Disconnect(context.Background()))
	_, err = c.ListTools(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}
