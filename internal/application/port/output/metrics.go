package output

import "time"

type MetricsPort interface {
	ToolCall(tool string, failed bool)
	ResearchFinished(status string, elapsed time.Duration)
	MCPServersConnected(n int)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) ToolCall(string, bool)                  {}
func (NopMetrics) ResearchFinished(string, time.Duration) {}
func (NopMetrics) MCPServersConnected(int)                {}
