package prompts

import (
	"bytes"
	"fmt"
	"text/template"
)

type ReportPromptData struct {
	Query string
	Data  string
}

type BrowserTaskPromptData struct {
	Query string
}

// Render executes a prompt template against data.
func Render(name, baseTemplate string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse %s prompt: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}

	return buf.String(), nil
}

func GenerateReportPrompt(query, data string) (string, error) {
	return Render("report", ReportPrompt, ReportPromptData{Query: query, Data: data})
}

func GenerateBrowserTaskPrompt(query string) (string, error) {
	return Render("browser_task", BrowserTaskPrompt, BrowserTaskPromptData{Query: query})
}
