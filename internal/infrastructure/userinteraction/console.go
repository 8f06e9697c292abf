package userinteraction

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.UserInteractionPort = (*ConsoleUserInteraction)(nil)

type ConsoleUserInteraction struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleUserInteraction() *ConsoleUserInteraction {
	return NewConsole(os.Stdin, os.Stdout)
}

// NewConsole reads answers from in and writes progress to out.
func NewConsole(in io.Reader, out io.Writer) *ConsoleUserInteraction {
	return &ConsoleUserInteraction{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// AskQuestion blocks until a line is read or ctx is done.
func (u *ConsoleUserInteraction) AskQuestion(ctx context.Context, question string) (string, error) {
	color.New(color.FgMagenta, color.Bold).Fprintf(u.out, "\n[ASSISTANT NEEDED] %s\n> ", question)

	type line struct {
		text string
		err  error
	}
	ch := make(chan line, 1)
	go func() {
		text, err := u.reader.ReadString('\n')
		ch <- line{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l := <-ch:
		if l.err != nil && (l.err != io.EOF || l.text == "") {
			return "", fmt.Errorf("failed to read user input: %w", l.err)
		}
		return strings.TrimSpace(l.text), nil
	}
}

func (u *ConsoleUserInteraction) ShowStep(_ context.Context, step, maxSteps int) {
	color.New(color.FgCyan, color.Bold).Fprintf(u.out, "\n--- Step %d/%d ---\n", step, maxSteps)
}

func (u *ConsoleUserInteraction) ShowThinking(_ context.Context, content string) {
	if content == "" {
		return
	}
	color.New(color.FgBlue).Fprint(u.out, "\nThinking: ")
	color.New(color.Faint).Fprintln(u.out, truncate(content, 500))
}

func (u *ConsoleUserInteraction) ShowToolStart(_ context.Context, toolName, arguments string) {
	color.New(color.FgYellow, color.Bold).Fprintf(u.out, "\n> %s\n", displayName(toolName))

	if summary := formatToolArguments(toolName, arguments); summary != "" {
		color.New(color.Faint).Fprintf(u.out, "   %s\n", summary)
	}
}

func (u *ConsoleUserInteraction) ShowToolResult(_ context.Context, toolName, result string, isError bool) {
	if isError {
		color.New(color.FgRed).Fprint(u.out, "x Error: ")
		color.New(color.Faint).Fprintln(u.out, truncate(result, 300))
		return
	}
	color.New(color.FgGreen).Fprintf(u.out, "ok %s\n", formatToolResult(toolName, result))
}

func displayName(toolName string) string {
	names := map[entity.ToolName]string{
		entity.ToolBrowserNavigate:   "Navigate",
		entity.ToolBrowserSearch:     "Web search",
		entity.ToolBrowserClick:      "Click",
		entity.ToolBrowserFill:       "Fill",
		entity.ToolBrowserScroll:     "Scroll",
		entity.ToolBrowserScreenshot: "Screenshot",
		entity.ToolBrowserPressEnter: "Press Enter",
		entity.ToolBrowserExtract:    "Extract content",
		entity.ToolBrowserUISummary:  "UI summary",
		entity.ToolAskForAssistant:   "Ask for assistant",
	}

	name := entity.ToolName(toolName)
	if display, ok := names[name]; ok {
		return display
	}
	if entity.IsMCPTool(name) {
		return "MCP " + strings.TrimPrefix(toolName, entity.MCPToolPrefix)
	}
	return toolName
}

func formatToolArguments(toolName, arguments string) string {
	var args map[string]any
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return ""
	}
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}

	switch entity.ToolName(toolName) {
	case entity.ToolBrowserNavigate:
		if url := str("url"); url != "" {
			return "URL: " + url
		}
	case entity.ToolBrowserSearch, entity.ToolAskForAssistant:
		if q := str("query"); q != "" {
			return truncate(q, 80)
		}
	case entity.ToolBrowserClick:
		if sel := str("selector"); sel != "" {
			return "Selector: " + truncate(sel, 60)
		}
	case entity.ToolBrowserFill:
		if sel := str("selector"); sel != "" {
			return fmt.Sprintf("Field: %s -> %s", truncate(sel, 40), truncate(str("text"), 30))
		}
	case entity.ToolBrowserScroll:
		return str("direction")
	case entity.ToolBrowserExtract:
		if f := str("format"); f != "" {
			return "Format: " + f
		}
	}
	return ""
}

func formatToolResult(toolName, result string) string {
	switch entity.ToolName(toolName) {
	case entity.ToolBrowserSearch, entity.ToolBrowserExtract, entity.ToolBrowserUISummary:
		first, _, _ := strings.Cut(result, "\n")
		return truncate(first, 100)
	case entity.ToolAskForAssistant:
		return truncate(result, 150)
	}
	return truncate(result, 100)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
