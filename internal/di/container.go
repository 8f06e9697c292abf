package di

import (
	"context"
	"fmt"

	"research-agent/internal/adapter/tool"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/browser/rod"
	"research-agent/internal/infrastructure/config"
	"research-agent/internal/infrastructure/llm/provider"
	"research-agent/internal/infrastructure/logger"
	"research-agent/internal/infrastructure/mcp/stdio"
	"research-agent/internal/infrastructure/metrics"
	"research-agent/internal/infrastructure/prompts"
	"research-agent/internal/infrastructure/userinteraction"
	"research-agent/internal/storage"
	"research-agent/internal/usecase/browsertask"
	"research-agent/internal/usecase/controller"
	"research-agent/internal/usecase/research"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Container struct {
	Logger   *logger.LoggerAdapter
	LLM      output.LLMPort
	Registry *prometheus.Registry
	Metrics  *metrics.Recorder
	Runner   *browsertask.Runner
	Browser  entity.BrowserConfig

	cfg   Config
	store *storage.RunStore
}

type Config struct {
	Provider    string
	ModelName   string
	Temperature *float64
	BaseURL     string
	APIKey      string

	Browser entity.BrowserConfig
	// BrowserConfigPath points to a legacy browser/context file that
	// replaces Browser when set.
	BrowserConfigPath string
	MCPConfigPath     string
	ExcludeActions    []string

	UseVision bool
	MaxSteps  int
	OutputDir string
	DBPath    string

	// Interactive routes ask_for_assistant and progress output to the terminal.
	Interactive bool
	Log         logger.Config
}

func NewContainer(ctx context.Context, cfg Config, env provider.Env) (*Container, error) {
	log, err := logger.NewLoggerAdapter(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := build(cfg, env, log)
	if err != nil {
		log.Close()
		return nil, err
	}
	log.Info("Container ready", "provider", cfg.Provider, "vision", cfg.UseVision)
	return c, nil
}

func build(cfg Config, env provider.Env, log *logger.LoggerAdapter) (*Container, error) {
	llm, err := provider.GetLLMModel(cfg.Provider, provider.Options{
		ModelName:   cfg.ModelName,
		Temperature: cfg.Temperature,
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Logger:      log,
	}, env)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm: %w", err)
	}

	browserCfg := cfg.Browser
	if cfg.BrowserConfigPath != "" {
		if browserCfg, err = config.LoadBrowserConfig(cfg.BrowserConfigPath); err != nil {
			return nil, err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	ctrlCfg := controller.Config{ExcludeActions: cfg.ExcludeActions}
	opts := []browsertask.Option{browsertask.WithMetrics(rec)}

	if cfg.Interactive {
		ui := userinteraction.NewConsoleUserInteraction()
		ctrlCfg.AskAssistant = tool.AskFunc(ui.AskQuestion)
		opts = append(opts, browsertask.WithUserInteraction(ui))
	}
	opts = append(opts, browsertask.WithController(ctrlCfg))

	if cfg.MCPConfigPath != "" {
		mcpCfg, err := config.LoadMCPConfig(cfg.MCPConfigPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, browsertask.WithMCP(stdio.NewFactory(log), mcpCfg))
	}

	browsers := rod.NewFactory(rod.WithLogger(log))
	runner := browsertask.NewRunner(llm, browsers, prompts.BrowserAgentPrompt, log, opts...)

	return &Container{
		Logger:   log,
		LLM:      llm,
		Registry: reg,
		Metrics:  rec,
		Runner:   runner,
		Browser:  browserCfg,
		cfg:      cfg,
	}, nil
}

// NewAgent returns a fresh research agent; agents are single-use once stopped.
func (c *Container) NewAgent() *research.Agent {
	return research.New(c.LLM, c.Runner, c.Browser, c.Logger,
		research.WithMetrics(c.Metrics),
		research.WithVision(c.cfg.UseVision),
		research.WithMaxSteps(c.cfg.MaxSteps),
	)
}

// OpenSessions opens the run store and returns a session registry whose runs
// live as long as ctx.
func (c *Container) OpenSessions(ctx context.Context) (*research.Sessions, error) {
	if c.store == nil {
		store, err := storage.Open(c.cfg.DBPath, c.Logger)
		if err != nil {
			return nil, err
		}
		c.store = store
	}
	return research.NewSessions(ctx, c.NewAgent, c.store, c.cfg.OutputDir, c.Logger), nil
}

func (c *Container) Close() {
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.Logger.Warn("Failed to close run store", "error", err)
		}
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
