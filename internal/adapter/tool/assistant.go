package tool

import (
	"context"
	"errors"
	"fmt"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ output.ToolPort = (*AskForAssistantTool)(nil)

const NoAssistantResponse = "Human cannot help you. Please try another way."

// AskFunc forwards a question to a human and returns the answer.
type AskFunc func(ctx context.Context, query string) (string, error)

type AskForAssistantTool struct {
	ask    AskFunc
	logger output.LoggerPort
}

// NewAskForAssistantTool accepts a nil ask; the tool then always declines.
func NewAskForAssistantTool(ask AskFunc, logger output.LoggerPort) *AskForAssistantTool {
	return &AskForAssistantTool{ask: ask, logger: logger}
}

func (t *AskForAssistantTool) Name() entity.ToolName { return entity.ToolAskForAssistant }
func (t *AskForAssistantTool) Description() string {
	return "When executing tasks, prioritize autonomous completion. However, if you encounter a definitive blocker " +
		"that prevents you from proceeding independently, such as needing credentials you don't possess, " +
		"requiring subjective human judgment, needing a physical action performed, encountering complex CAPTCHAs, " +
		"or facing limitations in your capabilities, you must request human assistance."
}
func (t *AskForAssistantTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"query": stringProp("Question or request for the human"),
	}, "query")
}

func (t *AskForAssistantTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Query string `json:"query"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if input.Query == "" {
		return "", errors.New("query is required")
	}

	if t.ask == nil {
		return NoAssistantResponse, nil
	}

	response, err := t.ask(ctx, input.Query)
	if err != nil {
		return "", fmt.Errorf("ask for assistant: %w", err)
	}

	msg := fmt.Sprintf("AI ask: %s. User response: %s", input.Query, response)
	if t.logger != nil {
		t.logger.Info(msg)
	}
	return msg, nil
}
