package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"research-agent/internal/application/port/input"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
)

var _ input.TaskExecutor = (*UseCase)(nil)

const (
	DefaultMaxSteps   = 50
	maxObservationLen = 20000
	errorPrefix       = "Error: "
)

var ErrMaxStepsExceeded = errors.New("max steps exceeded")

// Screenshotter supplies page images in vision mode.
type Screenshotter interface {
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
}

type Config struct {
	SystemPrompt string
	MaxSteps     int
	UseVision    bool
	// Temperature overrides the model's configured temperature when set.
	Temperature *float32
}

// UseCase runs a ReAct loop: the model picks tools, observations are fed
// back, and the first reply without tool calls is the answer.
type UseCase struct {
	llm     output.LLMPort
	tools   output.ToolRegistry
	logger  output.LoggerPort
	ui      output.UserInteractionPort
	metrics output.MetricsPort
	vision  Screenshotter
	cfg     Config
}

type Option func(*UseCase)

func WithUserInteraction(ui output.UserInteractionPort) Option {
	return func(uc *UseCase) { uc.ui = ui }
}

func WithMetrics(m output.MetricsPort) Option {
	return func(uc *UseCase) { uc.metrics = m }
}

// WithVision attaches a screenshot after every step when cfg.UseVision is set.
func WithVision(s Screenshotter) Option {
	return func(uc *UseCase) { uc.vision = s }
}

func New(
	llm output.LLMPort,
	tools output.ToolRegistry,
	logger output.LoggerPort,
	cfg Config,
	opts ...Option,
) *UseCase {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	uc := &UseCase{
		llm:     llm,
		tools:   tools,
		logger:  logger,
		metrics: output.NopMetrics{},
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) Execute(ctx context.Context, task string) (*input.ExecuteResult, error) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: uc.cfg.SystemPrompt},
		{Role: entity.RoleUser, Content: task},
	}
	toolDefs := uc.tools.Definitions()

	for step := 1; step <= uc.cfg.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if uc.ui != nil {
			uc.ui.ShowStep(ctx, step, uc.cfg.MaxSteps)
		}
		uc.logger.Debug("Starting step", "step", step)

		resp, err := uc.llm.Chat(ctx, output.ChatRequest{
			Messages:    messages,
			Tools:       toolDefs,
			Temperature: uc.cfg.Temperature,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("llm request failed: %w", err)
		}

		if resp.Message.Content != "" && uc.ui != nil {
			uc.ui.ShowThinking(ctx, resp.Message.Content)
		}
		messages = append(messages, resp.Message)

		if len(resp.Message.ToolCalls) == 0 {
			uc.logger.Info("Task completed", "steps", step)
			return &input.ExecuteResult{
				FinalAnswer: resp.Message.Content,
				Steps:       step,
			}, nil
		}

		for _, tc := range resp.Message.ToolCalls {
			if uc.ui != nil {
				uc.ui.ShowToolStart(ctx, tc.Name, tc.Arguments)
			}
			observation := uc.executeTool(ctx, tc)
			isError := strings.HasPrefix(observation, errorPrefix)
			uc.metrics.ToolCall(tc.Name, isError)
			if uc.ui != nil {
				uc.ui.ShowToolResult(ctx, tc.Name, observation, isError)
			}

			messages = append(messages, entity.Message{
				Role:       entity.RoleTool,
				ToolCallID: tc.ID,
				Name:       tc.Name,
				Content:    observation,
			})
		}

		if uc.cfg.UseVision && uc.vision != nil {
			messages = uc.attachScreenshot(ctx, messages)
		}
	}

	return nil, fmt.Errorf("%w (%d)", ErrMaxStepsExceeded, uc.cfg.MaxSteps)
}

func (uc *UseCase) executeTool(ctx context.Context, tc entity.ToolCall) string {
	tool, ok := uc.tools.Get(entity.ToolName(tc.Name))
	if !ok {
		uc.logger.Warn("Unknown tool called", "name", tc.Name)
		return fmt.Sprintf("%sunknown tool '%s'", errorPrefix, tc.Name)
	}

	uc.logger.Info("Executing tool", "name", tc.Name, "args", tc.Arguments)

	result, err := tool.Execute(ctx, tc.Arguments)
	if err != nil {
		uc.logger.Error("Tool execution failed", "name", tc.Name, "error", err)
		return errorPrefix + err.Error()
	}

	if len(result) > maxObservationLen {
		result = cutUTF8(result, maxObservationLen) + "\n... (truncated)"
	}

	uc.logger.Debug("Tool completed", "name", tc.Name, "resultLen", len(result))
	return result
}

// attachScreenshot appends the current page image and drops images from
// earlier messages so only the latest one is sent.
func (uc *UseCase) attachScreenshot(ctx context.Context, messages []entity.Message) []entity.Message {
	shot, err := uc.vision.Screenshot(ctx)
	if err != nil {
		uc.logger.Warn("Screenshot for vision failed", "error", err)
		return messages
	}

	for i := range messages {
		messages[i].Images = nil
	}
	return append(messages, entity.Message{
		Role:    entity.RoleUser,
		Content: "Screenshot of the current page.",
		Images:  []entity.Image{{Data: shot.Data, MediaType: "image/" + shot.Format}},
	})
}

// cutUTF8 shortens s to at most n bytes without splitting a rune.
func cutUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
