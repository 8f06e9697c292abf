package prompts

import (
	_ "embed"
)

//go:embed browser_agent.txt
var BrowserAgentPrompt string

//go:embed report_system.txt
var ReportSystemPrompt string

//go:embed report.txt
var ReportPrompt string

//go:embed browser_task.txt
var BrowserTaskPrompt string
