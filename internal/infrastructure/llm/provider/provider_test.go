package provider

import (
	"errors"
	"testing"

	"research-agent/internal/infrastructure/llm/anthropic"
	"research-agent/internal/infrastructure/llm/gemini"
	"research-agent/internal/infrastructure/llm/ollama"
	"research-agent/internal/infrastructure/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapEnv map[string]string

func (m mapEnv) Get(key string) string { return m[key] }

func TestGetLLMModel_MissingAPIKey(t *testing.T) {
	for _, name := range Supported {
		if name == Ollama {
			continue
		}
		t.Run(name, func(t *testing.T) {
			_, err := GetLLMModel(name, Options{}, mapEnv{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingAPIKey))
			assert.Contains(t, err.Error(), APIKeyEnv(name))
			assert.Contains(t, err.Error(), DisplayName(name))
		})
	}
}

func TestGetLLMModel_Unsupported(t *testing.T) {
	_, err := GetLLMModel("mistral", Options{APIKey: "k"}, mapEnv{})

	require.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.Contains(t, err.Error(), "mistral")
	for _, name := range Supported {
		assert.Contains(t, err.Error(), name)
	}
}

func TestGetLLMModel_OllamaWithoutKey(t *testing.T) {
	llm, err := GetLLMModel(Ollama, Options{}, mapEnv{})
	require.NoError(t, err)

	adapter, ok := llm.(*ollama.Adapter)
	require.True(t, ok)
	assert.Equal(t, "qwen2.5:7b", adapter.Model())
}

func TestGetLLMModel_MissingEndpoint(t *testing.T) {
	tests := []string{AzureOpenAI, Moonshot, SiliconFlow, ModelScope}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := GetLLMModel(name, Options{APIKey: "k"}, mapEnv{})
			assert.ErrorIs(t, err, ErrMissingEndpoint)
		})
	}
}

func TestGetLLMModel_EnvFallbacks(t *testing.T) {
	env := mapEnv{
		"MOONSHOT_API_KEY":  "secret",
		"MOONSHOT_ENDPOINT": "https://api.moonshot.cn/v1",
	}

	llm, err := GetLLMModel(Moonshot, Options{}, env)
	require.NoError(t, err)

	adapter, ok := llm.(*openai.Adapter)
	require.True(t, ok)
	assert.Equal(t, "moonshot-v1-32k-vision-preview", adapter.Model())
}

func TestGetLLMModel_AdapterSelection(t *testing.T) {
	temp := 0.7

	llm, err := GetLLMModel(Anthropic, Options{APIKey: "k", ModelName: "claude-x", Temperature: &temp}, nil)
	require.NoError(t, err)
	a, ok := llm.(*anthropic.Adapter)
	require.True(t, ok)
	assert.Equal(t, "claude-x", a.Model())

	llm, err = GetLLMModel(Google, Options{APIKey: "k"}, nil)
	require.NoError(t, err)
	g, ok := llm.(*gemini.Adapter)
	require.True(t, ok)
	assert.Equal(t, "gemini-2.0-flash-exp", g.Model())

	llm, err = GetLLMModel(AzureOpenAI, Options{APIKey: "k", BaseURL: "https://example.openai.azure.com"}, nil)
	require.NoError(t, err)
	_, ok = llm.(*openai.Adapter)
	assert.True(t, ok)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Unbound AI", DisplayName(Unbound))
	assert.Equal(t, "FOO", DisplayName("foo"))
}
