package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserConfigFromMap_Defaults(t *testing.T) {
	cfg, err := BrowserConfigFromMap(nil)
	require.NoError(t, err)

	assert.True(t, cfg.Headless)
	assert.Equal(t, DefaultWindowWidth, cfg.WindowWidth)
	assert.Equal(t, DefaultWindowHeight, cfg.WindowHeight)
	assert.Empty(t, cfg.BinaryPath)
}

func TestBrowserConfigFromMap_AllKeys(t *testing.T) {
	cfg, err := BrowserConfigFromMap(map[string]any{
		"headless":            false,
		"window_width":        float64(1920),
		"window_height":       "1080",
		"browser_binary_path": "/usr/bin/chromium",
		"user_data_dir":       "/tmp/profile",
		"extra_browser_args":  []any{"--lang=en", 42},
	})
	require.NoError(t, err)

	assert.False(t, cfg.Headless)
	assert.Equal(t, 1920, cfg.WindowWidth)
	assert.Equal(t, 1080, cfg.WindowHeight)
	assert.Equal(t, "/usr/bin/chromium", cfg.BinaryPath)
	assert.Equal(t, "/tmp/profile", cfg.UserDataDir)
	assert.Equal(t, []string{"--lang=en"}, cfg.ExtraArgs)
}

func TestBrowserConfigFromMap_BadType(t *testing.T) {
	_, err := BrowserConfigFromMap(map[string]any{"window_width": []int{1}})
	assert.Error(t, err)
}
