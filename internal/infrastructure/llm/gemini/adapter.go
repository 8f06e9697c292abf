package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"google.golang.org/genai"
)

var _ output.LLMPort = (*Adapter)(nil)

type Adapter struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      output.LoggerPort
}

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	Logger      output.LoggerPort
}

func NewAdapter(ctx context.Context, cfg Config) (*Adapter, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Adapter{
		client:      client,
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

	system, contents, err := convertMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: convertTools(req.Tools)}}
	}

	if a.logger != nil {
		a.logger.Debug("Gemini request", "model", a.model, "contents", len(contents), "tools", len(req.Tools))
	}

	resp, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content failed: %w", err)
	}

	return &output.ChatResponse{Message: convertResponse(resp)}, nil
}

func convertMessages(messages []entity.Message) (string, []*genai.Content, error) {
	var system []string
	var contents []*genai.Content

	// Gemini matches function responses by name, not by call ID.
	callNames := make(map[string]string)

	for _, msg := range messages {
		switch msg.Role {
		case entity.RoleSystem:
			system = append(system, msg.Content)

		case entity.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				args := map[string]any{}
				if tc.Arguments != "" {
					if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
						return "", nil, fmt.Errorf("tool call %s arguments: %w", tc.ID, err)
					}
				}
				callNames[tc.ID] = tc.Name
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}

		case entity.RoleTool:
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			response := map[string]any{"output": msg.Content}
			if strings.HasPrefix(msg.Content, "Error: ") {
				response = map[string]any{"error": msg.Content}
			}
			contents = append(contents, genai.NewContentFromParts(
				[]*genai.Part{genai.NewPartFromFunctionResponse(name, response)},
				genai.RoleUser,
			))

		default:
			parts := []*genai.Part{genai.NewPartFromText(msg.Content)}
			for _, img := range msg.Images {
				mediaType := img.MediaType
				if mediaType == "" {
					mediaType = "image/jpeg"
				}
				parts = append(parts, genai.NewPartFromBytes(img.Data, mediaType))
			}
			contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
		}
	}

	return strings.Join(system, "\n\n"), contents, nil
}

func convertTools(tools []entity.ToolDefinition) []*genai.FunctionDeclaration {
	result := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		result = append(result, &genai.FunctionDeclaration{
			Name:                 t.Name,
			Description:          t.Description,
			ParametersJsonSchema: t.Parameters,
		})
	}
	return result
}

func convertResponse(resp *genai.GenerateContentResponse) entity.Message {
	result := entity.Message{
		Role:    entity.RoleAssistant,
		Content: resp.Text(),
	}

	for i, call := range resp.FunctionCalls() {
		args, err := json.Marshal(call.Args)
		if err != nil || call.Args == nil {
			args = []byte("{}")
		}
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, call.Name)
		}
		result.ToolCalls = append(result.ToolCalls, entity.ToolCall{
			ID:        id,
			Name:      call.Name,
			Arguments: string(args),
		})
	}

	return result
}
