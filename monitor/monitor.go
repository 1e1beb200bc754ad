// Package monitor provides hooks to observe pipeline execution.
// Implement Monitor to track stage transitions and outcomes during
// ingestion and query processing.
package monitor

import (
	"log/slog"
	"time"
)

// Monitor receives pipeline lifecycle events. The runID correlates the
// events of one pipeline invocation; pipeline is "ingest" or "query".
// Implementations must be safe for concurrent use; a single monitor
// instance may observe several pipeline runs at once.
type Monitor interface {
	// PipelineStarted is called once per run. Subject is the document path
	// for ingestion runs and the query text for query runs.
	PipelineStarted(pipeline, runID, subject string)

	// StageStarted is called when a run enters a stage.
	StageStarted(pipeline, runID, stage string)

	// StageCompleted is called when a stage finishes cleanly.
	StageCompleted(pipeline, runID, stage string, elapsed time.Duration)

	// StageDegraded is called when a stage falls back to a partial result
	// and the run continues.
	StageDegraded(pipeline, runID, stage, reason string)

	// StageFailed is called when a stage error terminates the run.
	StageFailed(pipeline, runID, stage string, err error)

	// PipelineFinished is called once per run, after the terminal stage.
	PipelineFinished(pipeline, runID string, elapsed time.Duration)
}

// NoopMonitor is a no-op implementation of Monitor, used as the default.
type NoopMonitor struct{}

var _ Monitor = (*NoopMonitor)(nil)

func (n *NoopMonitor) PipelineStarted(_, _, _ string)                 {}
func (n *NoopMonitor) StageStarted(_, _, _ string)                    {}
func (n *NoopMonitor) StageCompleted(_, _, _ string, _ time.Duration) {}
func (n *NoopMonitor) StageDegraded(_, _, _, _ string)                {}
func (n *NoopMonitor) StageFailed(_, _, _ string, _ error)            {}
func (n *NoopMonitor) PipelineFinished(_, _ string, _ time.Duration)  {}

// SlogMonitor logs pipeline events through a structured logger.
type SlogMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*SlogMonitor)(nil)

// NewSlogMonitor creates a monitor that logs events. A nil logger falls
// back to slog.Default().
func NewSlogMonitor(logger *slog.Logger) *SlogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogMonitor{logger: logger.With("component", "monitor")}
}

func (m *SlogMonitor) PipelineStarted(pipeline, runID, subject string) {
	m.logger.Info("pipeline started", "pipeline", pipeline, "run", runID, "subject", subject)
}

func (m *SlogMonitor) StageStarted(pipeline, runID, stage string) {
	m.logger.Debug("stage started", "pipeline", pipeline, "run", runID, "stage", stage)
}

func (m *SlogMonitor) StageCompleted(pipeline, runID, stage string, elapsed time.Duration) {
	m.logger.Debug("stage completed", "pipeline", pipeline, "run", runID, "stage", stage, "elapsed", elapsed)
}

func (m *SlogMonitor) StageDegraded(pipeline, runID, stage, reason string) {
	m.logger.Warn("stage degraded", "pipeline", pipeline, "run", runID, "stage", stage, "reason", reason)
}

func (m *SlogMonitor) StageFailed(pipeline, runID, stage string, err error) {
	m.logger.Error("stage failed", "pipeline", pipeline, "run", runID, "stage", stage, "err", err)
}

func (m *SlogMonitor) PipelineFinished(pipeline, runID string, elapsed time.Duration) {
	m.logger.Info("pipeline finished", "pipeline", pipeline, "run", runID, "elapsed", elapsed)
}
