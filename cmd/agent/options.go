package main

import (
	"research-agent/internal/application/port/output"
	"research-agent/internal/di"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/llm/provider"
	"research-agent/internal/infrastructure/logger"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	provider    string
	model       string
	temperature float64
	baseURL     string

	headless      bool
	browserConfig string
	binaryPath    string
	cdpURL        string
	mcpConfig     string
	exclude       []string

	vision    bool
	maxSteps  int
	outputDir string
	dbPath    string
	logLevel  string
	logDir    string
}

func (o *rootOptions) bind(cmd *cobra.Command, e output.ConfigPort) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.provider, "provider", e.GetWithDefault("LLM_PROVIDER", provider.OpenAI), "LLM provider")
	f.StringVar(&o.model, "model", e.Get("LLM_MODEL_NAME"), "model name, provider default when empty")
	f.Float64Var(&o.temperature, "temperature", e.GetFloat("LLM_TEMPERATURE", -1), "sampling temperature, provider default when negative")
	f.StringVar(&o.baseURL, "base-url", e.Get("LLM_BASE_URL"), "override the provider endpoint")

	f.BoolVar(&o.headless, "headless", e.GetBool("BROWSER_HEADLESS", true), "run the browser without a window")
	f.StringVar(&o.browserConfig, "browser-config", e.Get("BROWSER_CONFIG_PATH"), "legacy browser/context config file (YAML or JSON)")
	f.StringVar(&o.binaryPath, "browser-binary", e.Get("BROWSER_BINARY_PATH"), "browser executable")
	f.StringVar(&o.cdpURL, "cdp-url", e.Get("BROWSER_CDP_URL"), "connect to a running browser instead of launching one")
	f.StringVar(&o.mcpConfig, "mcp-config", e.Get("MCP_CONFIG_PATH"), "MCP servers config file (JSON or YAML)")
	f.StringSliceVar(&o.exclude, "exclude-action", nil, "actions the agent may not use")

	f.BoolVar(&o.vision, "vision", e.GetBool("USE_VISION", false), "attach screenshots to the browser agent context")
	f.IntVar(&o.maxSteps, "max-steps", e.GetInt("MAX_STEPS", 0), "browser agent step limit, 50 when zero")
	f.StringVar(&o.outputDir, "output-dir", e.GetWithDefault("RESEARCH_OUTPUT_DIR", "./research_output"), "report directory")
	f.StringVar(&o.dbPath, "db", e.GetWithDefault("RESEARCH_DB_PATH", "research_runs.db"), "SQLite file for run records")
	f.StringVar(&o.logLevel, "log-level", e.GetWithDefault("LOG_LEVEL", "info"), "debug, info, warn or error")
	f.StringVar(&o.logDir, "log-dir", e.GetWithDefault("LOG_DIR", "log"), "JSON log directory, empty disables file logs")
}

func (o *rootOptions) containerConfig(taskName string, interactive bool) di.Config {
	browser := entity.DefaultBrowserConfig()
	browser.Headless = o.headless
	browser.BinaryPath = o.binaryPath
	browser.CDPURL = o.cdpURL

	cfg := di.Config{
		Provider:          o.provider,
		ModelName:         o.model,
		BaseURL:           o.baseURL,
		Browser:           browser,
		BrowserConfigPath: o.browserConfig,
		MCPConfigPath:     o.mcpConfig,
		ExcludeActions:    o.exclude,
		UseVision:         o.vision,
		MaxSteps:          o.maxSteps,
		OutputDir:         o.outputDir,
		DBPath:            o.dbPath,
		Interactive:       interactive,
		Log: logger.Config{
			Level:    o.logLevel,
			Dir:      o.logDir,
			TaskName: taskName,
			Console:  true,
		},
	}
	if o.temperature >= 0 {
		t := o.temperature
		cfg.Temperature = &t
	}
	return cfg
}
