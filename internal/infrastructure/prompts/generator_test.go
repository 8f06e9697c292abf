package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReportPrompt(t *testing.T) {
	prompt, err := GenerateReportPrompt("What is MCP?", "MCP is a plugin protocol.")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Research Question: What is MCP?")
	assert.Contains(t, prompt, "MCP is a plugin protocol.")

	for _, heading := range []string{
		"Executive Summary",
		"Key Findings",
		"Detailed Analysis",
		"Conclusions and Recommendations",
		"Sources",
	} {
		assert.Contains(t, prompt, heading)
	}
}

func TestGenerateBrowserTaskPrompt(t *testing.T) {
	prompt, err := GenerateBrowserTaskPrompt("rust async runtimes")
	require.NoError(t, err)
	assert.Equal(t, "Research and gather comprehensive information about: rust async runtimes", prompt)
}

func TestRender_InvalidTemplate(t *testing.T) {
	_, err := Render("broken", "Test {{.InvalidField", nil)
	assert.Error(t, err)
}

func TestRender_UnknownField(t *testing.T) {
	_, err := Render("unknown", "Test {{.InvalidField}}", ReportPromptData{})
	assert.Error(t, err)
}

func TestEmbeddedPromptsArePresent(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(BrowserAgentPrompt))
	assert.NotEmpty(t, strings.TrimSpace(ReportSystemPrompt))
	assert.Contains(t, BrowserAgentPrompt, "ask_for_assistant")
}
