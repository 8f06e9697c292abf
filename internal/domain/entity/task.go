package entity

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// BrowserTask is a single run of the browser agent.
type BrowserTask struct {
	ID        string
	Query     string
	UseVision bool
	MaxSteps  int
	Browser   BrowserConfig
}

type BrowserTaskResult struct {
	Query  string
	Result string
	Status TaskStatus
}

// ResearchRun is the persisted record of one research request.
type ResearchRun struct {
	ID         string
	Query      string
	Status     TaskStatus
	ReportPath string
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
