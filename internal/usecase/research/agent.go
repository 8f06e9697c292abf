// Package research implements the two-step deep research workflow: a
// browser agent gathers material, then the model writes a markdown report.
package research

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"research-agent/internal/application/port/input"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/prompts"

	"github.com/google/uuid"
)

const (
	DefaultOutputDir = "./research_output"
	ReportFilename   = "report.md"
	noResults        = "No results found"
)

var ErrStopped = errors.New("research stopped")

var _ input.Researcher = (*Agent)(nil)

type Agent struct {
	llm     output.LLMPort
	runner  input.BrowserTaskRunner
	browser entity.BrowserConfig
	logger  output.LoggerPort
	metrics output.MetricsPort

	useVision bool
	maxSteps  int
	newTaskID func() string

	mu        sync.Mutex
	stopped   bool
	currentID string
	cancel    context.CancelFunc
	stopFlags map[string]bool
}

type Option func(*Agent)

func WithMetrics(m output.MetricsPort) Option {
	return func(a *Agent) { a.metrics = m }
}

func WithVision(enabled bool) Option {
	return func(a *Agent) { a.useVision = enabled }
}

func WithMaxSteps(n int) Option {
	return func(a *Agent) { a.maxSteps = n }
}

func New(
	llm output.LLMPort,
	runner input.BrowserTaskRunner,
	browser entity.BrowserConfig,
	logger output.LoggerPort,
	opts ...Option,
) *Agent {
	a := &Agent{
		llm:       llm,
		runner:    runner,
		browser:   browser,
		logger:    logger,
		metrics:   output.NopMetrics{},
		newTaskID: NewTaskID,
		stopFlags: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewTaskID returns an ID of the form research_<8 hex chars>.
func NewTaskID() string {
	return "research_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Research gathers information about query with the browser agent and
// writes <outputDir>/report.md. It returns the report path.
func (a *Agent) Research(ctx context.Context, query, outputDir string) (string, error) {
	if a.Stopped() {
		return "", ErrStopped
	}
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	start := time.Now()
	ctx, taskID := a.begin(ctx)
	defer a.finish()

	log := a.logger.WithField("task_id", taskID)
	log.Info("Starting research", "query", query)

	data := a.conductBrowserResearch(ctx, log, query, taskID)
	if a.Stopped() {
		a.metrics.ResearchFinished(string(entity.TaskStatusCancelled), time.Since(start))
		log.Warn("Research stopped before report generation")
		return "", ErrStopped
	}

	report := a.generateReport(ctx, log, query, data)
	if a.Stopped() {
		a.metrics.ResearchFinished(string(entity.TaskStatusCancelled), time.Since(start))
		log.Warn("Research stopped during report generation")
		return "", ErrStopped
	}

	reportPath := filepath.Join(outputDir, ReportFilename)
	if err := writeFile(reportPath, report); err != nil {
		a.metrics.ResearchFinished(string(entity.TaskStatusFailed), time.Since(start))
		return "", fmt.Errorf("write report: %w", err)
	}

	a.metrics.ResearchFinished(string(entity.TaskStatusCompleted), time.Since(start))
	log.Info("Research complete", "report", reportPath)
	return reportPath, nil
}

func (a *Agent) begin(ctx context.Context) (context.Context, string) {
	ctx, cancel := context.WithCancel(ctx)
	id := a.newTaskID()

	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentID = id
	a.cancel = cancel
	return ctx, id
}

func (a *Agent) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	a.currentID = ""
	a.cancel = nil
}

func (a *Agent) conductBrowserResearch(ctx context.Context, log output.LoggerPort, query, taskID string) string {
	taskQuery, err := prompts.GenerateBrowserTaskPrompt(query)
	if err != nil {
		log.Error("Browser research failed", "error", err)
		return fmt.Sprintf("Error conducting research: %v", err)
	}

	res := a.runner.RunTask(ctx, entity.BrowserTask{
		ID:        taskID,
		Query:     taskQuery,
		UseVision: a.useVision,
		MaxSteps:  a.maxSteps,
		Browser:   a.browser,
	})
	log.Info("Browser research finished", "status", res.Status)

	if res.Result == "" {
		return noResults
	}
	return res.Result
}

func (a *Agent) generateReport(ctx context.Context, log output.LoggerPort, query, data string) string {
	prompt, err := prompts.GenerateReportPrompt(query, data)
	if err == nil {
		var resp *output.ChatResponse
		resp, err = a.llm.Chat(ctx, output.ChatRequest{
			Messages: []entity.Message{
				{Role: entity.RoleSystem, Content: strings.TrimSpace(prompts.ReportSystemPrompt)},
				{Role: entity.RoleUser, Content: prompt},
			},
		})
		if err == nil {
			return resp.Message.Content
		}
	}

	log.Error("Report generation failed", "error", err)
	return fmt.Sprintf("# Research Report\n\n## Error\nFailed to generate report: %v\n\n## Raw Data\n%s", err, data)
}

// Stop is sticky: once called, this agent refuses further research.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	if a.currentID != "" {
		a.stopFlags[a.currentID] = true
	}
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *Agent) Stopped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// StopRequested reports whether Stop was called while taskID was running.
func (a *Agent) StopRequested(taskID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopFlags[taskID]
}

// CurrentTaskID is empty when no research is running.
func (a *Agent) CurrentTaskID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentID
}
