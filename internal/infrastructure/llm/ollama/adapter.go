package ollama

import (
	"context"
	"errors"
	"fmt"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var _ output.LLMPort = (*Adapter)(nil)

// Adapter drives a local Ollama server through langchaingo.
type Adapter struct {
	llm         llms.Model
	model       string
	temperature float32
	logger      output.LoggerPort
}

type Config struct {
	Model       string
	BaseURL     string
	Temperature float32
	Logger      output.LoggerPort
}

func NewAdapter(cfg Config) (*Adapter, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.Model)}
	if cfg.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
	}

	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}

	return &Adapter{
		llm:         llm,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

func (a *Adapter) Model() string {
	return a.model
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	temperature := a.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	opts := []llms.CallOption{llms.WithTemperature(float64(temperature))}
	if len(req.Tools) > 0 {
		opts = append(opts, llms.WithTools(convertTools(req.Tools)))
	}

	if a.logger != nil {
		a.logger.Debug("Ollama request", "model", a.model, "messages", len(req.Messages), "tools", len(req.Tools))
	}

	resp, err := a.llm.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama generate content failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("ollama returned no choices")
	}

	choice := resp.Choices[0]
	msg := entity.Message{
		Role:    entity.RoleAssistant,
		Content: choice.Content,
	}
	for _, tc := range choice.ToolCalls {
		if tc.FunctionCall == nil {
			continue
		}
		args := tc.FunctionCall.Arguments
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = append(msg.ToolCalls, entity.ToolCall{
			ID:        tc.ID,
			Name:      tc.FunctionCall.Name,
			Arguments: args,
		})
	}

	return &output.ChatResponse{Message: msg}, nil
}

func convertMessages(messages []entity.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			result = append(result, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))

		case entity.RoleAssistant:
			mc := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if msg.Content != "" {
				mc.Parts = append(mc.Parts, llms.TextContent{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				mc.Parts = append(mc.Parts, llms.ToolCall{
					ID:   tc.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			result = append(result, mc)

		case entity.RoleTool:
			result = append(result, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: msg.ToolCallID,
					Name:       msg.Name,
					Content:    msg.Content,
				}},
			})

		default:
			mc := llms.TextParts(llms.ChatMessageTypeHuman, msg.Content)
			for _, img := range msg.Images {
				mediaType := img.MediaType
				if mediaType == "" {
					mediaType = "image/jpeg"
				}
				mc.Parts = append(mc.Parts, llms.BinaryPart(mediaType, img.Data))
			}
			result = append(result, mc)
		}
	}

	return result
}

func convertTools(tools []entity.ToolDefinition) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, t := range tools {
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return result
}
