// Package browsertask runs a single browser agent task end to end: open a
// browser, assemble the controller, drive the executor and clean up.
package browsertask

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"research-agent/internal/application/port/input"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/usecase/controller"
	"research-agent/internal/usecase/executor"
)

var _ input.BrowserTaskRunner = (*Runner)(nil)

type Runner struct {
	llm          output.LLMPort
	browsers     output.BrowserFactory
	mcpFactory   output.MCPClientFactory
	mcpConfig    entity.MCPConfig
	controller   controller.Config
	systemPrompt string
	logger       output.LoggerPort
	ui           output.UserInteractionPort
	metrics      output.MetricsPort

	tasks *Tasks
}

type Option func(*Runner)

// WithMCP connects the given servers for every task.
func WithMCP(factory output.MCPClientFactory, cfg entity.MCPConfig) Option {
	return func(r *Runner) {
		r.mcpFactory = factory
		r.mcpConfig = cfg
	}
}

func WithController(cfg controller.Config) Option {
	return func(r *Runner) { r.controller = cfg }
}

func WithUserInteraction(ui output.UserInteractionPort) Option {
	return func(r *Runner) { r.ui = ui }
}

func WithMetrics(m output.MetricsPort) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithTasks(t *Tasks) Option {
	return func(r *Runner) { r.tasks = t }
}

func NewRunner(
	llm output.LLMPort,
	browsers output.BrowserFactory,
	systemPrompt string,
	logger output.LoggerPort,
	opts ...Option,
) *Runner {
	r := &Runner{
		llm:          llm,
		browsers:     browsers,
		systemPrompt: systemPrompt,
		logger:       logger,
		metrics:      output.NopMetrics{},
		tasks:        NewTasks(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Tasks returns the registry of running tasks.
func (r *Runner) Tasks() *Tasks {
	return r.tasks
}

// RunTask never returns an error: failures are reported through the
// result status and an "Error: ..." result text.
func (r *Runner) RunTask(ctx context.Context, task entity.BrowserTask) entity.BrowserTaskResult {
	log := r.logger.WithFields(map[string]any{"task_id": task.ID})
	log.Info("Running browser task", "query", task.Query)

	if ctx.Err() != nil {
		return cancelled(task)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.tasks.add(task.ID, cancel)
	defer r.tasks.remove(task.ID)

	browser, err := r.browsers.NewBrowser(ctx, task.Browser)
	if err != nil {
		log.Error("Browser start failed", "error", err)
		return failed(task, fmt.Errorf("start browser: %w", err))
	}
	defer browser.Close()

	ctrl := controller.New(r.controller, r.mcpFactory, log, r.metrics)
	ctrl.RegisterBrowserTools(browser)
	ctrl.SetupMCP(ctx, r.mcpConfig)
	// Disconnect even when ctx is already cancelled.
	defer ctrl.CloseMCP(context.WithoutCancel(ctx))

	opts := []executor.Option{executor.WithMetrics(r.metrics), executor.WithVision(browser)}
	if r.ui != nil {
		opts = append(opts, executor.WithUserInteraction(r.ui))
	}
	exec := executor.New(r.llm, ctrl.Registry(), log, executor.Config{
		SystemPrompt: r.systemPrompt,
		MaxSteps:     task.MaxSteps,
		UseVision:    task.UseVision,
	}, opts...)

	res, err := exec.Execute(ctx, task.Query)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Browser task cancelled")
			return cancelled(task)
		}
		log.Error("Browser task failed", "error", err)
		return failed(task, err)
	}

	log.Info("Browser task completed", "steps", res.Steps)
	return entity.BrowserTaskResult{
		Query:  task.Query,
		Result: res.FinalAnswer,
		Status: entity.TaskStatusCompleted,
	}
}

func cancelled(task entity.BrowserTask) entity.BrowserTaskResult {
	return entity.BrowserTaskResult{Query: task.Query, Status: entity.TaskStatusCancelled}
}

func failed(task entity.BrowserTask, err error) entity.BrowserTaskResult {
	return entity.BrowserTaskResult{
		Query:  task.Query,
		Result: "Error: " + err.Error(),
		Status: entity.TaskStatusFailed,
	}
}

// Tasks tracks running browser tasks so they can be cancelled by ID.
type Tasks struct {
	mu     sync.Mutex
	active map[string]context.CancelFunc
}

func NewTasks() *Tasks {
	return &Tasks{active: make(map[string]context.CancelFunc)}
}

func (t *Tasks) add(id string, cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active[id] = cancel
}

func (t *Tasks) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, id)
}

// Cancel stops the task with the given ID. It reports whether the task was
// running.
func (t *Tasks) Cancel(id string) bool {
	t.mu.Lock()
	cancel, ok := t.active[id]
	t.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (t *Tasks) Running(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.active[id]
	return ok
}

func (t *Tasks) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active)
}
