// Package compat accepts the older two-part browser configuration
// (browser settings plus a separate context) and folds it into
// entity.BrowserConfig.
package compat

import (
	"research-agent/internal/domain/entity"
)

const (
	DefaultContextWidth  = 1280
	DefaultContextHeight = 720
)

// BrowserConfig is the legacy browser-level configuration.
type BrowserConfig struct {
	Headless          bool     `json:"headless" yaml:"headless"`
	DisableSecurity   bool     `json:"disable_security" yaml:"disable_security"`
	BrowserBinaryPath string   `json:"browser_binary_path,omitempty" yaml:"browser_binary_path,omitempty"`
	ExtraBrowserArgs  []string `json:"extra_browser_args,omitempty" yaml:"extra_browser_args,omitempty"`
	WSSURL            string   `json:"wss_url,omitempty" yaml:"wss_url,omitempty"`
	CDPURL            string   `json:"cdp_url,omitempty" yaml:"cdp_url,omitempty"`

	NewContextConfig *ContextConfig `json:"new_context_config,omitempty" yaml:"new_context_config,omitempty"`
}

// ContextConfig is the legacy per-context configuration.
type ContextConfig struct {
	WindowWidth       int    `json:"window_width" yaml:"window_width"`
	WindowHeight      int    `json:"window_height" yaml:"window_height"`
	TracePath         string `json:"trace_path,omitempty" yaml:"trace_path,omitempty"`
	SaveRecordingPath string `json:"save_recording_path,omitempty" yaml:"save_recording_path,omitempty"`
	SaveDownloadsPath string `json:"save_downloads_path,omitempty" yaml:"save_downloads_path,omitempty"`
}

func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		WindowWidth:  DefaultContextWidth,
		WindowHeight: DefaultContextHeight,
	}
}

// ToBrowserConfig converts the legacy browser settings alone, using the
// embedded context config when present.
func (c BrowserConfig) ToBrowserConfig() entity.BrowserConfig {
	return Merge(c, c.NewContextConfig)
}

// Merge builds the session configuration for a new context. Context values
// override browser values; a nil context uses DefaultContextConfig.
func Merge(browser BrowserConfig, ctx *ContextConfig) entity.BrowserConfig {
	cfg := entity.BrowserConfig{
		Headless:        browser.Headless,
		DisableSecurity: browser.DisableSecurity,
		BinaryPath:      browser.BrowserBinaryPath,
		CDPURL:          browser.CDPURL,
	}
	if cfg.CDPURL == "" {
		cfg.CDPURL = browser.WSSURL
	}
	if len(browser.ExtraBrowserArgs) > 0 {
		cfg.ExtraArgs = append([]string(nil), browser.ExtraBrowserArgs...)
	}

	cc := DefaultContextConfig()
	if browser.NewContextConfig != nil {
		cc = overlay(cc, *browser.NewContextConfig)
	}
	if ctx != nil {
		cc = overlay(cc, *ctx)
	}

	cfg.WindowWidth = cc.WindowWidth
	cfg.WindowHeight = cc.WindowHeight
	cfg.DownloadsPath = cc.SaveDownloadsPath
	return cfg
}

func overlay(base, top ContextConfig) ContextConfig {
	if top.WindowWidth > 0 {
		base.WindowWidth = top.WindowWidth
	}
	if top.WindowHeight > 0 {
		base.WindowHeight = top.WindowHeight
	}
	if top.TracePath != "" {
		base.TracePath = top.TracePath
	}
	if top.SaveRecordingPath != "" {
		base.SaveRecordingPath = top.SaveRecordingPath
	}
	if top.SaveDownloadsPath != "" {
		base.SaveDownloadsPath = top.SaveDownloadsPath
	}
	return base
}
