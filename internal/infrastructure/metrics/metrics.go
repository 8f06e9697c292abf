// Package metrics records agent activity as Prometheus series.
package metrics

import (
	"strings"
	"time"

	"research-agent/internal/application/port/output"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "research_agent"

var _ output.MetricsPort = (*Recorder)(nil)

type Recorder struct {
	toolCalls        *prometheus.CounterVec
	researchRuns     *prometheus.CounterVec
	researchDuration prometheus.Histogram
	mcpServers       prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Agent tool invocations by tool and outcome.",
		}, []string{"tool", "status"}),
		researchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "research_runs_total",
			Help:      "Finished research runs by final status.",
		}, []string{"status"}),
		researchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "research_duration_seconds",
			Help:      "Wall time of research runs.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		mcpServers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mcp_servers_connected",
			Help:      "MCP servers connected by the most recent setup.",
		}),
	}

	for _, c := range []prometheus.Collector{r.toolCalls, r.researchRuns, r.researchDuration, r.mcpServers} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) ToolCall(tool string, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	// Keep MCP tool names from exploding label cardinality.
	if strings.HasPrefix(tool, "mcp_") {
		tool = "mcp"
	}
	r.toolCalls.WithLabelValues(tool, status).Inc()
}

func (r *Recorder) ResearchFinished(status string, elapsed time.Duration) {
	r.researchRuns.WithLabelValues(status).Inc()
	r.researchDuration.Observe(elapsed.Seconds())
}

func (r *Recorder) MCPServersConnected(n int) {
	r.mcpServers.Set(float64(n))
}
