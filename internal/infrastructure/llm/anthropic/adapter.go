package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var _ output.LLMPort = (*Adapter)(nil)

const defaultMaxTokens = 8192

type Adapter struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
	logger      output.LoggerPort
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int64
	Logger      output.LoggerPort
}

func DefaultConfig(apiKey, model string) Config {
	return Config{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   "https://api.anthropic.com",
		MaxTokens: defaultMaxTokens,
	}
}

func NewAdapter(cfg Config) *Adapter {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Adapter{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      cfg.Logger,
	}
}

func (a *Adapter) Model() string {
	return a.model
}

func (a *Adapter) Chat(ctx context.Context, req output.ChatRequest) (*output.ChatResponse, error) {
	temperature := a.temperature
	if req.Temperature != nil {
		temperature = float64(*req.Temperature)
	}

	system, messages, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(temperature),
		Tools:       convertTools(req.Tools),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	if a.logger != nil {
		a.logger.Debug("Anthropic request", "model", a.model, "messages", len(messages), "tools", len(params.Tools))
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages request failed: %w", err)
	}

	return &output.ChatResponse{Message: convertResponse(msg)}, nil
}

// convertMessages folds system prompts into one string and merges consecutive
// turns of the same role, since tool results travel inside user turns.
func convertMessages(messages []entity.Message) (string, []anthropic.MessageParam, error) {
	var system []string
	var result []anthropic.MessageParam

	var currentRole anthropic.MessageParamRole
	var blocks []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(blocks) == 0 {
			return
		}
		result = append(result, anthropic.MessageParam{Role: currentRole, Content: blocks})
		blocks = nil
	}

	for _, msg := range messages {
		var role anthropic.MessageParamRole
		var msgBlocks []anthropic.ContentBlockParamUnion

		switch msg.Role {
		case entity.RoleSystem:
			system = append(system, msg.Content)
			continue

		case entity.RoleTool:
			role = anthropic.MessageParamRoleUser
			isError := strings.HasPrefix(msg.Content, "Error: ")
			msgBlocks = append(msgBlocks, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, isError))

		case entity.RoleAssistant:
			role = anthropic.MessageParamRoleAssistant
			if msg.Content != "" {
				msgBlocks = append(msgBlocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any = map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &input); err != nil {
						return "", nil, fmt.Errorf("tool call %s arguments: %w", tc.ID, err)
					}
				}
				msgBlocks = append(msgBlocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}

		default:
			role = anthropic.MessageParamRoleUser
			if msg.Content != "" {
				msgBlocks = append(msgBlocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, img := range msg.Images {
				mediaType := img.MediaType
				if mediaType == "" {
					mediaType = "image/jpeg"
				}
				msgBlocks = append(msgBlocks, anthropic.NewImageBlockBase64(mediaType, base64.StdEncoding.EncodeToString(img.Data)))
			}
		}

		if len(msgBlocks) == 0 {
			continue
		}
		if role != currentRole {
			flush()
			currentRole = role
		}
		blocks = append(blocks, msgBlocks...)
	}
	flush()

	return strings.Join(system, "\n\n"), result, nil
}

func convertTools(tools []entity.ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{
			Properties: t.Parameters["properties"],
		}
		if required, ok := t.Parameters["required"].([]string); ok {
			schema.Required = required
		}

		tool := anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}
		result = append(result, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return result
}

func convertResponse(msg *anthropic.Message) entity.Message {
	result := entity.Message{Role: entity.RoleAssistant}

	var text []string
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text = append(text, b.Text)
		case anthropic.ToolUseBlock:
			args := string(b.Input)
			if args == "" || args == "null" {
				args = "{}"
			}
			result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	result.Content = strings.Join(text, "\n")

	return result
}
