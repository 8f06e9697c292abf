package entity

import (
	"fmt"
	"strconv"
)

const (
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 1100
)

// BrowserConfig is the launch configuration of a browser session.
type BrowserConfig struct {
	Headless        bool
	WindowWidth     int
	WindowHeight    int
	BinaryPath      string
	UserDataDir     string
	DisableSecurity bool
	ExtraArgs       []string
	// CDPURL connects to an already running browser instead of launching one.
	CDPURL string
	// DownloadsPath receives files downloaded by the page when set.
	DownloadsPath string
}

func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:     true,
		WindowWidth:  DefaultWindowWidth,
		WindowHeight: DefaultWindowHeight,
	}
}

// BrowserConfigFromMap reads the loosely typed configuration bag used by
// callers (CLI flags, HTTP requests). Unknown keys are ignored.
func BrowserConfigFromMap(m map[string]any) (BrowserConfig, error) {
	cfg := DefaultBrowserConfig()

	var err error
	if v, ok := m["headless"]; ok {
		if cfg.Headless, err = toBool(v); err != nil {
			return cfg, fmt.Errorf("headless: %w", err)
		}
	}
	if v, ok := m["window_width"]; ok {
		if cfg.WindowWidth, err = toInt(v); err != nil {
			return cfg, fmt.Errorf("window_width: %w", err)
		}
	}
	if v, ok := m["window_height"]; ok {
		if cfg.WindowHeight, err = toInt(v); err != nil {
			return cfg, fmt.Errorf("window_height: %w", err)
		}
	}
	if v, ok := m["disable_security"]; ok {
		if cfg.DisableSecurity, err = toBool(v); err != nil {
			return cfg, fmt.Errorf("disable_security: %w", err)
		}
	}
	if v, ok := m["browser_binary_path"].(string); ok {
		cfg.BinaryPath = v
	}
	if v, ok := m["user_data_dir"].(string); ok {
		cfg.UserDataDir = v
	}
	if v, ok := m["cdp_url"].(string); ok {
		cfg.CDPURL = v
	}
	if v, ok := m["save_downloads_path"].(string); ok {
		cfg.DownloadsPath = v
	}
	if v, ok := m["extra_browser_args"]; ok {
		cfg.ExtraArgs = toStrings(v)
	}

	return cfg, nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	case nil:
		return false, nil
	}
	return false, fmt.Errorf("unexpected type %T", v)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
