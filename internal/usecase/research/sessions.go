package research

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	ErrNotRunning     = errors.New("research run is not running")
	ErrReportNotReady = errors.New("research report is not ready")
)

// AgentFactory builds a fresh agent for each run; agents are single-use
// because Stop is sticky.
type AgentFactory func() *Agent

// Sessions tracks running research agents by run ID and records their
// progress in a RunRepository.
type Sessions struct {
	ctx       context.Context
	newAgent  AgentFactory
	runs      output.RunRepository
	outputDir string
	logger    output.LoggerPort

	mu     sync.Mutex
	agents map[string]*Agent
	wg     sync.WaitGroup
}

// NewSessions runs every research under ctx; cancelling it aborts them all.
func NewSessions(
	ctx context.Context,
	newAgent AgentFactory,
	runs output.RunRepository,
	outputDir string,
	logger output.LoggerPort,
) *Sessions {
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}
	return &Sessions{
		ctx:       ctx,
		newAgent:  newAgent,
		runs:      runs,
		outputDir: outputDir,
		logger:    logger,
		agents:    make(map[string]*Agent),
	}
}

// Start records a pending run and researches query in the background.
// Each run writes into its own subdirectory of the output dir.
func (s *Sessions) Start(ctx context.Context, query string) (*entity.ResearchRun, error) {
	if query == "" {
		return nil, errors.New("query is required")
	}

	now := time.Now().UTC()
	run := &entity.ResearchRun{
		ID:        uuid.NewString(),
		Query:     query,
		Status:    entity.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	agent := s.newAgent()
	s.mu.Lock()
	s.agents[run.ID] = agent
	s.mu.Unlock()

	s.wg.Add(1)
	go s.execute(*run, agent)

	return run, nil
}

func (s *Sessions) execute(run entity.ResearchRun, agent *Agent) {
	defer s.wg.Done()
	defer s.remove(run.ID)

	log := s.logger.WithField("run_id", run.ID)
	store := context.WithoutCancel(s.ctx)

	run.Status = entity.TaskStatusRunning
	s.save(store, log, &run)

	path, err := agent.Research(s.ctx, run.Query, filepath.Join(s.outputDir, run.ID))
	switch {
	case errors.Is(err, ErrStopped), errors.Is(err, context.Canceled):
		run.Status = entity.TaskStatusCancelled
	case err != nil:
		run.Status = entity.TaskStatusFailed
		run.Error = err.Error()
		log.Error("Research run failed", "error", err)
	default:
		run.Status = entity.TaskStatusCompleted
		run.ReportPath = path
	}
	s.save(store, log, &run)
	log.Info("Research run finished", "status", run.Status)
}

func (s *Sessions) save(ctx context.Context, log output.LoggerPort, run *entity.ResearchRun) {
	run.UpdatedAt = time.Now().UTC()
	if err := s.runs.Update(ctx, run); err != nil {
		log.Error("Failed to update run", "status", run.Status, "error", err)
	}
}

func (s *Sessions) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, id)
}

// Stop asks the agent behind id to stop. It returns ErrNotRunning for a
// finished run and ErrRunNotFound for an unknown one.
func (s *Sessions) Stop(ctx context.Context, id string) error {
	s.mu.Lock()
	agent, ok := s.agents[id]
	s.mu.Unlock()
	if ok {
		agent.Stop()
		return nil
	}

	if _, err := s.runs.Get(ctx, id); err != nil {
		return err
	}
	return ErrNotRunning
}

func (s *Sessions) Get(ctx context.Context, id string) (*entity.ResearchRun, error) {
	return s.runs.Get(ctx, id)
}

func (s *Sessions) List(ctx context.Context, limit int) ([]entity.ResearchRun, error) {
	return s.runs.List(ctx, limit)
}

// Report returns the markdown report of a completed run.
func (s *Sessions) Report(ctx context.Context, id string) (string, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if run.Status != entity.TaskStatusCompleted || run.ReportPath == "" {
		return "", ErrReportNotReady
	}
	data, err := os.ReadFile(run.ReportPath)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	return string(data), nil
}

// Running returns the IDs of runs still in progress.
func (s *Sessions) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	return ids
}

// Wait blocks until every started run has finished.
func (s *Sessions) Wait() {
	s.wg.Wait()
}
