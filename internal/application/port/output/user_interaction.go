package output

import "context"

// UserInteractionPort is the human side of an agent run: answering
// ask_for_assistant and following progress.
type UserInteractionPort interface {
	// AskQuestion blocks until the human answers or ctx is done.
	AskQuestion(ctx context.Context, question string) (string, error)

	ShowStep(ctx context.Context, step, maxSteps int)
	ShowThinking(ctx context.Context, content string)
	ShowToolStart(ctx context.Context, toolName, arguments string)
	ShowToolResult(ctx context.Context, toolName, result string, isError bool)
}
