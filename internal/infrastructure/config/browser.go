package config

import (
	"fmt"
	"os"

	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/browser/compat"

	"gopkg.in/yaml.v3"
)

// browserFile is the legacy layout: a browser section plus an optional
// context section that overrides it.
type browserFile struct {
	Browser compat.BrowserConfig  `yaml:"browser"`
	Context *compat.ContextConfig `yaml:"context"`
}

func LoadBrowserConfig(path string) (entity.BrowserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.BrowserConfig{}, fmt.Errorf("read browser config: %w", err)
	}
	return ParseBrowserConfig(data)
}

func ParseBrowserConfig(data []byte) (entity.BrowserConfig, error) {
	var f browserFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return entity.BrowserConfig{}, fmt.Errorf("parse browser config: %w", err)
	}
	return compat.Merge(f.Browser, f.Context), nil
}
