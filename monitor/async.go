package monitor

import (
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
)

// AsyncMonitor forwards events to a wrapped monitor on a worker pool so a
// slow sink never stalls a pipeline. Event delivery errors are logged and
// swallowed; monitoring must not affect pipeline outcomes.
type AsyncMonitor struct {
	next   Monitor
	pool   *ants.Pool
	logger *slog.Logger
}

var _ Monitor = (*AsyncMonitor)(nil)

// NewAsyncMonitor wraps next with asynchronous delivery. Pool size 1 keeps
// event order; larger sizes trade ordering for throughput.
func NewAsyncMonitor(next Monitor, poolSize int) (*AsyncMonitor, error) {
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	return &AsyncMonitor{
		next:   next,
		pool:   pool,
		logger: slog.Default().With("component", "monitor"),
	}, nil
}

// Release drains the pool. Events submitted after Release are dropped.
func (m *AsyncMonitor) Release() {
	m.pool.Release()
}

// submit runs fn on the pool, dropping the event when the pool is released
// or saturated.
func (m *AsyncMonitor) submit(fn func()) {
	if err := m.pool.Submit(fn); err != nil {
		m.logger.Debug("dropping monitor event", "err", err)
	}
}

func (m *AsyncMonitor) PipelineStarted(pipeline, runID, subject string) {
	m.submit(func() { m.next.PipelineStarted(pipeline, runID, subject) })
}

func (m *AsyncMonitor) StageStarted(pipeline, runID, stage string) {
	m.submit(func() { m.next.StageStarted(pipeline, runID, stage) })
}

func (m *AsyncMonitor) StageCompleted(pipeline, runID, stage string, elapsed time.Duration) {
	m.submit(func() { m.next.StageCompleted(pipeline, runID, stage, elapsed) })
}

func (m *AsyncMonitor) StageDegraded(pipeline, runID, stage, reason string) {
	m.submit(func() { m.next.StageDegraded(pipeline, runID, stage, reason) })
}

func (m *AsyncMonitor) StageFailed(pipeline, runID, stage string, err error) {
	m.submit(func() { m.next.StageFailed(pipeline, runID, stage, err) })
}

func (m *AsyncMonitor) PipelineFinished(pipeline, runID string, elapsed time.Duration) {
	m.submit(func() { m.next.PipelineFinished(pipeline, runID, elapsed) })
}
