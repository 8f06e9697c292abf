package entity

import "strings"

type ToolName string

const (
	ToolBrowserNavigate   ToolName = "navigate"
	ToolBrowserSearch     ToolName = "web_search"
	ToolBrowserClick      ToolName = "click"
	ToolBrowserFill       ToolName = "fill"
	ToolBrowserScroll     ToolName = "scroll"
	ToolBrowserScreenshot ToolName = "screenshot"
	ToolBrowserPressEnter ToolName = "press_enter"
	ToolBrowserExtract    ToolName = "extract"
	ToolBrowserUISummary  ToolName = "ui_summary"

	ToolAskForAssistant ToolName = "ask_for_assistant"
)

// MCPToolPrefix namespaces tools exposed by MCP servers: mcp_{server}_{tool}.
const MCPToolPrefix = "mcp_"

func MCPToolName(server, tool string) ToolName {
	return ToolName(MCPToolPrefix + server + "_" + tool)
}

func IsMCPTool(name ToolName) bool {
	return strings.HasPrefix(string(name), MCPToolPrefix)
}

func (t ToolName) String() string {
	return string(t)
}
