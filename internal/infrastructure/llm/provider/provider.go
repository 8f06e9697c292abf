// Package provider maps a provider name onto a concrete LLM adapter.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"research-agent/internal/application/port/output"
	"research-agent/internal/infrastructure/llm/anthropic"
	"research-agent/internal/infrastructure/llm/gemini"
	"research-agent/internal/infrastructure/llm/ollama"
	"research-agent/internal/infrastructure/llm/openai"
)

var (
	ErrMissingAPIKey       = errors.New("api key not found")
	ErrUnsupportedProvider = errors.New("unsupported provider")
	ErrMissingEndpoint     = errors.New("endpoint is required")
)

const (
	OpenAI      = "openai"
	Anthropic   = "anthropic"
	Google      = "google"
	Groq        = "groq"
	Ollama      = "ollama"
	AzureOpenAI = "azure_openai"
	DeepSeek    = "deepseek"
	Grok        = "grok"
	Alibaba     = "alibaba"
	Moonshot    = "moonshot"
	Unbound     = "unbound"
	SiliconFlow = "siliconflow"
	ModelScope  = "modelscope"
)

// Supported lists provider names in the order they are reported to users.
var Supported = []string{
	Anthropic, OpenAI, Google, Groq, Ollama, AzureOpenAI, DeepSeek,
	Grok, Alibaba, Moonshot, Unbound, SiliconFlow, ModelScope,
}

var DisplayNames = map[string]string{
	OpenAI:      "OpenAI",
	Anthropic:   "Anthropic",
	Google:      "Google",
	Groq:        "Groq",
	Ollama:      "Ollama",
	AzureOpenAI: "Azure OpenAI",
	DeepSeek:    "DeepSeek",
	Grok:        "Grok",
	Alibaba:     "Alibaba",
	Moonshot:    "Moonshot",
	Unbound:     "Unbound AI",
	SiliconFlow: "SiliconFlow",
	ModelScope:  "ModelScope",
}

type defaults struct {
	model       string
	temperature float64
	endpoint    string
	// endpointRequired rejects a configuration with no endpoint at all.
	endpointRequired bool
}

var providerDefaults = map[string]defaults{
	Anthropic:   {model: "claude-3-5-sonnet-20241022", temperature: 0.0, endpoint: "https://api.anthropic.com"},
	OpenAI:      {model: "gpt-4o", temperature: 0.2, endpoint: "https://api.openai.com/v1"},
	Google:      {model: "gemini-2.0-flash-exp", temperature: 0.0},
	Groq:        {model: "llama-3.1-8b-instant", temperature: 0.0, endpoint: "https://api.groq.com/openai/v1"},
	Ollama:      {model: "qwen2.5:7b", temperature: 0.0, endpoint: "http://localhost:11434"},
	AzureOpenAI: {model: "gpt-4o", temperature: 0.2, endpointRequired: true},
	DeepSeek:    {model: "deepseek-chat", temperature: 0.0, endpoint: "https://api.deepseek.com/v1"},
	Grok:        {model: "grok-3", temperature: 0.2, endpoint: "https://api.x.ai/v1", endpointRequired: true},
	Alibaba:     {model: "qwen-plus", temperature: 0.2, endpoint: "https://dashscope.aliyuncs.com/compatible-mode/v1", endpointRequired: true},
	Moonshot:    {model: "moonshot-v1-32k-vision-preview", temperature: 0.2, endpointRequired: true},
	Unbound:     {model: "gpt-4o-mini", temperature: 0.2, endpoint: "https://api.getunbound.ai", endpointRequired: true},
	SiliconFlow: {model: "Qwen/QwQ-32B", temperature: 0.2, endpointRequired: true},
	ModelScope:  {model: "Qwen/QwQ-32B", temperature: 0.2, endpointRequired: true},
}

// Options mirrors the per-request overrides a caller may pass. Zero values
// fall back to environment variables and then to the provider defaults.
type Options struct {
	ModelName   string
	Temperature *float64
	BaseURL     string
	APIKey      string
	Logger      output.LoggerPort
}

// Env is the subset of configuration the factory reads.
type Env interface {
	Get(key string) string
}

// DisplayName returns the user-facing name of a provider.
func DisplayName(name string) string {
	if display, ok := DisplayNames[name]; ok {
		return display
	}
	return strings.ToUpper(name)
}

// APIKeyEnv returns the environment variable holding the provider key.
func APIKeyEnv(name string) string {
	return strings.ToUpper(name) + "_API_KEY"
}

// EndpointEnv returns the environment variable holding the provider endpoint.
func EndpointEnv(name string) string {
	return strings.ToUpper(name) + "_ENDPOINT"
}

// GetLLMModel builds a chat model for the named provider.
func GetLLMModel(name string, opts Options, env Env) (output.LLMPort, error) {
	def, ok := providerDefaults[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s. Supported providers: %s",
			ErrUnsupportedProvider, name, strings.Join(Supported, ", "))
	}

	apiKey := opts.APIKey
	if name != Ollama {
		if apiKey == "" && env != nil {
			apiKey = env.Get(APIKeyEnv(name))
		}
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s API key not found! Please set the `%s` environment variable or provide it in the request",
				ErrMissingAPIKey, DisplayName(name), APIKeyEnv(name))
		}
	}

	endpoint := opts.BaseURL
	if endpoint == "" && env != nil {
		endpoint = env.Get(EndpointEnv(name))
	}
	if endpoint == "" {
		endpoint = def.endpoint
	}
	if endpoint == "" && def.endpointRequired {
		return nil, fmt.Errorf("%w: %s", ErrMissingEndpoint, DisplayName(name))
	}

	model := opts.ModelName
	if model == "" {
		model = def.model
	}
	temperature := def.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	switch name {
	case Anthropic:
		return anthropic.NewAdapter(anthropic.Config{
			APIKey:      apiKey,
			Model:       model,
			BaseURL:     endpoint,
			Temperature: temperature,
			Logger:      opts.Logger,
		}), nil

	case Google:
		adapter, err := gemini.NewAdapter(context.Background(), gemini.Config{
			APIKey:      apiKey,
			Model:       model,
			BaseURL:     endpoint,
			Temperature: float32(temperature),
			Logger:      opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return adapter, nil

	case Ollama:
		adapter, err := ollama.NewAdapter(ollama.Config{
			Model:       model,
			BaseURL:     endpoint,
			Temperature: float32(temperature),
			Logger:      opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		return adapter, nil

	default:
		return openai.NewAdapter(openai.Config{
			APIKey:      apiKey,
			Model:       model,
			BaseURL:     endpoint,
			Temperature: float32(temperature),
			Azure:       name == AzureOpenAI,
			Logger:      opts.Logger,
		}), nil
	}
}
